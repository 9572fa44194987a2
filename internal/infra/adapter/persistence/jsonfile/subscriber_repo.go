package jsonfile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pravo-monitor/internal/repository"
)

// SubscriberRepo persists the subscriber chat identifiers as a JSON array.
type SubscriberRepo struct {
	path string
	mu   sync.Mutex
}

// NewSubscriberRepo creates a subscriber repository backed by the given file.
func NewSubscriberRepo(path string) *SubscriberRepo {
	return &SubscriberRepo{path: path}
}

func (r *SubscriberRepo) load() ([]string, error) {
	var ids []string
	if _, err := loadJSON(r.path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns all subscriber identifiers in a stable order.
func (r *SubscriberRepo) List(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Add subscribes a chat identifier. Adding an existing subscriber is a no-op.
func (r *SubscriberRepo) Add(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("Add: empty subscriber id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	if err := saveJSON(r.path, ids); err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	return nil
}

// Remove unsubscribes a chat identifier. Removing an unknown subscriber is a no-op.
func (r *SubscriberRepo) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	kept := ids[:0]
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return nil
	}
	if err := saveJSON(r.path, kept); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

// Count returns the number of subscribers.
func (r *SubscriberRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return len(ids), nil
}

var _ repository.SubscriberRepository = (*SubscriberRepo)(nil)
