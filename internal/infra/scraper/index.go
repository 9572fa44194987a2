package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/resilience/circuitbreaker"
	"pravo-monitor/internal/resilience/retry"
)

// Open-data index periods published by pravo.gov.ru. Each CSV covers acts
// from the last N days.
const (
	IndexPeriod30  = 30
	IndexPeriod90  = 90
	IndexPeriod360 = 360
)

const (
	indexColOrgID = "ID принявшего органа"
	indexColLink  = "Ссылка на список документов"
)

var indexURLs = map[int]string{
	IndexPeriod30:  "http://publication.pravo.gov.ru/opendata/7710349494-legalacts-30/data-legalacts-30.csv",
	IndexPeriod90:  "http://publication.pravo.gov.ru/opendata/7710349494-legalacts-90/data-legalacts-90.csv",
	IndexPeriod360: "http://publication.pravo.gov.ru/opendata/7710349494-legalacts-360/data-legalacts-360.csv",
}

// IndexClient resolves per-organization listing URLs from the pravo.gov.ru
// open-data CSV index. The index maps issuing-body IDs to the current URL of
// their document listing, which shifts over time; resolving it per cycle
// keeps the scraper pointed at live pages.
type IndexClient struct {
	client         *http.Client
	baseURL        *url.URL
	indexURL       func(days int) string
	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewIndexClient creates an index client resolving relative listing links
// against baseURL.
func NewIndexClient(client *http.Client, baseURL *url.URL) *IndexClient {
	return &IndexClient{
		client:         client,
		baseURL:        baseURL,
		indexURL:       func(days int) string { return indexURLs[days] },
		retryConfig:    retry.IndexFetchConfig(),
		circuitBreaker: circuitbreaker.New(circuitbreaker.IndexFetchConfig()),
	}
}

// ListingURLs fetches the index for the given period and returns the listing
// URL for each source whose issuing-body ID appears in it. Sources absent
// from the index are simply omitted; the caller falls back to their static
// listing URLs.
func (c *IndexClient) ListingURLs(ctx context.Context, days int, sources []entity.Source) (map[string]string, error) {
	indexURL := c.indexURL(days)
	if indexURL == "" {
		return nil, fmt.Errorf("ListingURLs: %w: unsupported index period %d", entity.ErrInvalidInput, days)
	}

	rows, err := c.fetchIndex(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("ListingURLs: fetch index: %w", err)
	}

	urls := make(map[string]string)
	for _, src := range sources {
		link, ok := rows[src.IndexID]
		if !ok || link == "" {
			slog.Debug("source missing from open-data index",
				slog.String("source", src.Key),
				slog.Int("days", days))
			continue
		}

		ref, err := url.Parse(link)
		if err != nil {
			slog.Warn("malformed listing link in open-data index",
				slog.String("source", src.Key),
				slog.String("link", link))
			continue
		}
		urls[src.Key] = c.baseURL.ResolveReference(ref).String()
	}
	return urls, nil
}

// fetchIndex downloads and parses the CSV index into an org-ID → listing-link
// map, retrying transient failures through the shared circuit breaker.
func (c *IndexClient) fetchIndex(ctx context.Context, indexURL string) (map[string]string, error) {
	var rows map[string]string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doFetch(ctx, indexURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("index fetch circuit breaker open, request rejected",
					slog.String("circuit", c.circuitBreaker.Name()),
					slog.String("url", indexURL))
			}
			return err
		}
		rows = result.(map[string]string)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return rows, nil
}

func (c *IndexClient) doFetch(ctx context.Context, indexURL string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	return parseIndexCSV(io.LimitReader(resp.Body, maxBodySize))
}

// parseIndexCSV reads the semicolon-separated index, locating the org-ID and
// listing-link columns by header name. Rows short of either column are
// skipped.
func parseIndexCSV(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	orgCol, linkCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case indexColOrgID:
			orgCol = i
		case indexColLink:
			linkCol = i
		}
	}
	if orgCol < 0 || linkCol < 0 {
		return nil, fmt.Errorf("CSV header missing required columns: %v", header)
	}

	rows := make(map[string]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		if len(record) <= orgCol || len(record) <= linkCol {
			continue
		}
		orgID := strings.TrimSpace(record[orgCol])
		link := strings.TrimSpace(record[linkCol])
		if orgID == "" || link == "" {
			continue
		}
		// first occurrence wins, matching the index's one-row-per-org shape
		if _, exists := rows[orgID]; !exists {
			rows[orgID] = link
		}
	}
	return rows, nil
}
