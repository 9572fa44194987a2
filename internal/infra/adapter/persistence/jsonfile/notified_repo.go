package jsonfile

import (
	"context"
	"fmt"
	"sync"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/repository"
)

// NotifiedRepo persists the per-source notified-URL history as a JSON mapping
// of source key to URL list, bounded at repository.NotifiedCap entries.
type NotifiedRepo struct {
	path string
	mu   sync.Mutex
}

// NewNotifiedRepo creates a notified-set repository backed by the given file.
func NewNotifiedRepo(path string) *NotifiedRepo {
	return &NotifiedRepo{path: path}
}

func (r *NotifiedRepo) load() (map[string][]string, error) {
	data := map[string][]string{}
	if _, err := loadJSON(r.path, &data); err != nil {
		return nil, err
	}
	for _, key := range entity.SourceKeys() {
		if _, ok := data[key]; !ok {
			data[key] = []string{}
		}
	}
	return data, nil
}

// List returns the notified URLs for the source, oldest first.
func (r *NotifiedRepo) List(ctx context.Context, source string) ([]string, error) {
	if !entity.IsSourceKey(source) {
		return nil, fmt.Errorf("List: %w: %q", entity.ErrUnknownSource, source)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return data[source], nil
}

// Append records URLs as notified, skipping ones already present and evicting
// the oldest entries beyond the cap.
func (r *NotifiedRepo) Append(ctx context.Context, source string, urls []string) error {
	if !entity.IsSourceKey(source) {
		return fmt.Errorf("Append: %w: %q", entity.ErrUnknownSource, source)
	}
	if len(urls) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}

	known := make(map[string]struct{}, len(data[source]))
	for _, u := range data[source] {
		known[u] = struct{}{}
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := known[u]; ok {
			continue
		}
		known[u] = struct{}{}
		data[source] = append(data[source], u)
	}

	if excess := len(data[source]) - repository.NotifiedCap; excess > 0 {
		data[source] = data[source][excess:]
	}

	if err := saveJSON(r.path, data); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

var _ repository.NotifiedRepository = (*NotifiedRepo)(nil)
