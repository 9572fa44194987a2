package repository

import (
	"context"
	"time"
)

// NotifiedCap bounds the per-source notified-URL history. When the list
// exceeds the cap the oldest entries are evicted first.
const NotifiedCap = 1000

// BoundaryRepository persists the per-source notification boundary: the
// maximum publish date among documents already processed for that source.
type BoundaryRepository interface {
	// Get returns the stored boundary for the source, or the zero time if
	// no boundary has been recorded yet.
	Get(ctx context.Context, source string) (time.Time, error)

	// Set stores the boundary timestamp for the source.
	Set(ctx context.Context, source string, t time.Time) error
}

// NotifiedRepository persists the per-source history of URLs already pushed
// to subscribers, capped at NotifiedCap entries.
type NotifiedRepository interface {
	// List returns the notified URLs for the source, oldest first.
	List(ctx context.Context, source string) ([]string, error)

	// Append records URLs as notified, skipping ones already present and
	// evicting the oldest entries beyond NotifiedCap.
	Append(ctx context.Context, source string, urls []string) error
}

// SubscriberRepository persists the set of chat identifiers subscribed to
// new-document notifications.
type SubscriberRepository interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
