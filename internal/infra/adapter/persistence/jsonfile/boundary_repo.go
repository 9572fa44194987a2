package jsonfile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/repository"
)

// BoundaryRepo persists the per-source notification boundary as a JSON
// mapping of source key to ISO timestamp (empty string = unset).
type BoundaryRepo struct {
	path string
	mu   sync.Mutex
}

// NewBoundaryRepo creates a boundary repository backed by the given file.
func NewBoundaryRepo(path string) *BoundaryRepo {
	return &BoundaryRepo{path: path}
}

func (r *BoundaryRepo) load() (map[string]string, error) {
	data := map[string]string{}
	if _, err := loadJSON(r.path, &data); err != nil {
		return nil, err
	}
	for _, key := range entity.SourceKeys() {
		if _, ok := data[key]; !ok {
			data[key] = ""
		}
	}
	return data, nil
}

// Get returns the stored boundary for the source, or the zero time if no
// boundary has been recorded yet.
func (r *BoundaryRepo) Get(ctx context.Context, source string) (time.Time, error) {
	if !entity.IsSourceKey(source) {
		return time.Time{}, fmt.Errorf("Get: %w: %q", entity.ErrUnknownSource, source)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return time.Time{}, fmt.Errorf("Get: %w", err)
	}
	raw := data[source]
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("Get: parse boundary %q for %s: %w", raw, source, err)
	}
	return t, nil
}

// Set stores the boundary timestamp for the source.
func (r *BoundaryRepo) Set(ctx context.Context, source string, t time.Time) error {
	if !entity.IsSourceKey(source) {
		return fmt.Errorf("Set: %w: %q", entity.ErrUnknownSource, source)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	data[source] = t.Format(time.RFC3339)
	if err := saveJSON(r.path, data); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

var _ repository.BoundaryRepository = (*BoundaryRepo)(nil)
