package repository

import (
	"context"
	"time"

	"pravo-monitor/internal/domain/entity"
)

// IntegrityStats describes the self-check results for the document collection.
// DuplicateURLs should always be zero by construction; a non-zero value means
// the collection file was modified outside the store.
type IntegrityStats struct {
	TotalDocuments int
	UniqueURLs     int
	DuplicateURLs  int
	MissingFields  int
	CreatedAt      string
}

// DocumentRepository is the append-only, URL-deduplicated collection of all
// discovered documents. Implementations must serialize mutating operations;
// callers may invoke them concurrently.
type DocumentRepository interface {
	// List returns all documents, optionally filtered by exact organization
	// match. An empty organization returns everything. Order is insertion
	// order and carries no meaning.
	List(ctx context.Context, organization string) ([]entity.Document, error)

	// Count returns the total number of stored documents.
	Count(ctx context.Context) (int, error)

	// Add appends every candidate whose URL is not already present and
	// returns exactly the added subset, never candidates that were already
	// stored. Calling Add twice with the same batch yields an empty result
	// the second time.
	Add(ctx context.Context, candidates []entity.Document) ([]entity.Document, error)

	// Search tokenizes the query, drops stop words and short tokens, and
	// returns documents matching every remaining keyword in title or
	// organization, sorted by publish date descending, truncated to limit.
	// A query that reduces to no keywords returns an empty result.
	Search(ctx context.Context, query string, limit int) ([]entity.Document, error)

	// Latest returns up to limit documents sorted by publish date
	// descending, optionally filtered by organization.
	Latest(ctx context.Context, organization string, limit int) ([]entity.Document, error)

	// LastUpdate returns the timestamp of the last collection update, or the
	// zero time if the collection has never been updated.
	LastUpdate(ctx context.Context) (time.Time, error)

	// SetLastUpdate records the collection update timestamp.
	SetLastUpdate(ctx context.Context, t time.Time) error

	// CheckIntegrity scans the collection and reports dedup and
	// completeness statistics.
	CheckIntegrity(ctx context.Context) (IntegrityStats, error)
}
