package track

import (
	"context"
	"fmt"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/repository"
)

// NotifiedTracker records which document URLs have already been delivered,
// as a second line of defense behind the boundary: if a boundary file is
// lost or reset, the notified set still suppresses repeat notifications for
// recently delivered documents.
type NotifiedTracker struct {
	Repo repository.NotifiedRepository
}

func NewNotifiedTracker(repo repository.NotifiedRepository) *NotifiedTracker {
	return &NotifiedTracker{Repo: repo}
}

// FilterUnnotified returns the documents whose URLs are not yet in the
// source's notified set, preserving input order.
func (t *NotifiedTracker) FilterUnnotified(ctx context.Context, source string, docs []entity.Document) ([]entity.Document, error) {
	known, err := t.Repo.List(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("FilterUnnotified: list notified: %w", err)
	}

	seen := make(map[string]struct{}, len(known))
	for _, u := range known {
		seen[u] = struct{}{}
	}

	var fresh []entity.Document
	for _, doc := range docs {
		if _, ok := seen[doc.URL]; !ok {
			fresh = append(fresh, doc)
		}
	}
	return fresh, nil
}

// MarkNotified appends the documents' URLs to the source's notified set.
func (t *NotifiedTracker) MarkNotified(ctx context.Context, source string, docs []entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	urls := make([]string, 0, len(docs))
	for _, doc := range docs {
		urls = append(urls, doc.URL)
	}
	if err := t.Repo.Append(ctx, source, urls); err != nil {
		return fmt.Errorf("MarkNotified: append: %w", err)
	}
	return nil
}
