package jsonfile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/pkg/search"
	"pravo-monitor/internal/repository"
)

// collection is the on-disk shape of the document database file.
type collection struct {
	Documents  []entity.Document `json:"documents"`
	LastUpdate string            `json:"last_update"`
	CreatedAt  string            `json:"created_at"`
}

// DocumentRepo implements repository.DocumentRepository on a single JSON
// file. All operations load the full collection, which is acceptable because
// the collection is bounded (single-digit thousands of records) and updates
// are infrequent.
type DocumentRepo struct {
	path string
	mu   sync.Mutex
}

// NewDocumentRepo creates a document repository backed by the given file.
func NewDocumentRepo(path string) *DocumentRepo {
	return &DocumentRepo{path: path}
}

// load reads the collection from disk, initializing an empty one (with
// created_at set) if the file does not exist yet.
func (r *DocumentRepo) load() (*collection, error) {
	var c collection
	ok, err := loadJSON(r.path, &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		c = collection{
			Documents: []entity.Document{},
			CreatedAt: time.Now().Format(time.RFC3339),
		}
	}
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return &c, nil
}

// List retrieves all documents, optionally filtered by exact organization match.
func (r *DocumentRepo) List(ctx context.Context, organization string) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if organization == "" {
		return c.Documents, nil
	}

	docs := make([]entity.Document, 0, len(c.Documents))
	for _, d := range c.Documents {
		if d.Organization == organization {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// Count returns the total number of stored documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return len(c.Documents), nil
}

// Add appends candidates whose URL is not already present and returns exactly
// the added subset. Candidates failing validation are skipped, never stored.
func (r *DocumentRepo) Add(ctx context.Context, candidates []entity.Document) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("Add: %w", err)
	}

	existing := make(map[string]struct{}, len(c.Documents))
	for _, d := range c.Documents {
		existing[d.URL] = struct{}{}
	}

	added := make([]entity.Document, 0, len(candidates))
	for _, cand := range candidates {
		if err := cand.Validate(); err != nil {
			continue
		}
		if _, ok := existing[cand.URL]; ok {
			continue
		}
		existing[cand.URL] = struct{}{}
		c.Documents = append(c.Documents, cand)
		added = append(added, cand)
	}

	if len(added) == 0 {
		return added, nil
	}

	c.LastUpdate = time.Now().Format(time.RFC3339)
	if err := saveJSON(r.path, c); err != nil {
		return nil, fmt.Errorf("Add: %w", err)
	}
	return added, nil
}

// Search returns documents matching every keyword of the query in title or
// organization, sorted by publish date descending, truncated to limit.
func (r *DocumentRepo) Search(ctx context.Context, query string, limit int) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	keywords := search.Keywords(query)
	if len(keywords) == 0 {
		return []entity.Document{}, nil
	}

	matched := make([]entity.Document, 0, limit)
	for _, d := range c.Documents {
		if search.MatchesAll(keywords, strings.ToLower(d.Title), strings.ToLower(d.Organization)) {
			matched = append(matched, d)
		}
	}

	entity.SortByDateDesc(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Latest returns up to limit documents sorted by publish date descending,
// optionally filtered by organization.
func (r *DocumentRepo) Latest(ctx context.Context, organization string, limit int) ([]entity.Document, error) {
	docs, err := r.List(ctx, organization)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}

	sorted := make([]entity.Document, len(docs))
	copy(sorted, docs)
	entity.SortByDateDesc(sorted)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// LastUpdate returns the timestamp of the last collection update, or the zero
// time if the collection has never been updated.
func (r *DocumentRepo) LastUpdate(ctx context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return time.Time{}, fmt.Errorf("LastUpdate: %w", err)
	}
	if c.LastUpdate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.LastUpdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("LastUpdate: parse %q: %w", c.LastUpdate, err)
	}
	return t, nil
}

// SetLastUpdate records the collection update timestamp.
func (r *DocumentRepo) SetLastUpdate(ctx context.Context, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return fmt.Errorf("SetLastUpdate: %w", err)
	}
	c.LastUpdate = t.Format(time.RFC3339)
	if err := saveJSON(r.path, c); err != nil {
		return fmt.Errorf("SetLastUpdate: %w", err)
	}
	return nil
}

// CheckIntegrity scans the collection and reports dedup and completeness
// statistics. DuplicateURLs is zero unless the file was edited externally.
func (r *DocumentRepo) CheckIntegrity(ctx context.Context) (repository.IntegrityStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load()
	if err != nil {
		return repository.IntegrityStats{}, fmt.Errorf("CheckIntegrity: %w", err)
	}

	stats := repository.IntegrityStats{
		TotalDocuments: len(c.Documents),
		CreatedAt:      c.CreatedAt,
	}
	seen := make(map[string]struct{}, len(c.Documents))
	for _, d := range c.Documents {
		if _, dup := seen[d.URL]; dup {
			stats.DuplicateURLs++
		} else {
			seen[d.URL] = struct{}{}
		}
		if d.Validate() != nil {
			stats.MissingFields++
		}
	}
	stats.UniqueURLs = len(seen)
	return stats, nil
}

var _ repository.DocumentRepository = (*DocumentRepo)(nil)
