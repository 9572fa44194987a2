// Package track maintains the per-source discovery state: the newest publish
// date already seen (the boundary) and the set of document URLs already
// delivered to subscribers.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/repository"
)

// BoundaryTracker decides which freshly scraped documents are genuinely new
// for a source and advances the source's boundary afterwards.
type BoundaryTracker struct {
	Repo repository.BoundaryRepository
}

func NewBoundaryTracker(repo repository.BoundaryRepository) *BoundaryTracker {
	return &BoundaryTracker{Repo: repo}
}

// FilterNew returns the documents published strictly after the source's
// boundary. Documents whose publish date cannot be parsed are excluded: an
// undated document cannot be ordered against the boundary, and admitting it
// would re-notify it every cycle.
func (t *BoundaryTracker) FilterNew(ctx context.Context, source string, docs []entity.Document) ([]entity.Document, error) {
	boundary, err := t.Repo.Get(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("FilterNew: get boundary: %w", err)
	}

	var fresh []entity.Document
	for _, doc := range docs {
		published := doc.PublishedAt()
		if published.IsZero() {
			slog.Debug("document excluded from boundary comparison",
				slog.String("source", source),
				slog.String("url", doc.URL),
				slog.String("publish_date", doc.PublishDate))
			continue
		}
		if published.After(boundary) {
			fresh = append(fresh, doc)
		}
	}
	return fresh, nil
}

// Advance moves the source's boundary to the newest publish date in the
// batch, but never backwards: a scrape that happened to surface only older
// documents must not reopen an interval that was already notified.
func (t *BoundaryTracker) Advance(ctx context.Context, source string, docs []entity.Document) error {
	newest := newestPublishDate(docs)
	if newest.IsZero() {
		return nil
	}

	current, err := t.Repo.Get(ctx, source)
	if err != nil {
		return fmt.Errorf("Advance: get boundary: %w", err)
	}
	if !newest.After(current) {
		return nil
	}

	if err := t.Repo.Set(ctx, source, newest); err != nil {
		return fmt.Errorf("Advance: set boundary: %w", err)
	}
	slog.Info("boundary advanced",
		slog.String("source", source),
		slog.Time("from", current),
		slog.Time("to", newest))
	return nil
}

func newestPublishDate(docs []entity.Document) time.Time {
	var newest time.Time
	for _, doc := range docs {
		published := doc.PublishedAt()
		if published.After(newest) {
			newest = published
		}
	}
	return newest
}
