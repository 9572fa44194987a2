package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/resilience/circuitbreaker"
	"pravo-monitor/internal/resilience/retry"
)

const (
	// maxBodySize bounds a single page download (the listing pages are small).
	maxBodySize = 10 * 1024 * 1024

	// DefaultMaxPages is the hard page-count ceiling per pagination walk.
	// It bounds worst-case work against a misbehaving or cyclic paginator.
	DefaultMaxPages = 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// indexParamRe extracts a page index carried in a URL fragment.
var indexParamRe = regexp.MustCompile(`index=(\d+)`)

// Paginator drives the Extractor across consecutive pages of one source's
// listing, following "next page" links until exhaustion, a configured item
// limit, the page ceiling, or a detected self-loop. One Paginator serves one
// source so its circuit breaker state tracks that source alone.
type Paginator struct {
	client         *http.Client
	extractor      *Extractor
	baseURL        *url.URL
	maxPages       int
	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewPaginator creates a paginator for the named source. The source key only
// labels the circuit breaker; the listing URL is supplied per Walk call.
func NewPaginator(client *http.Client, extractor *Extractor, source string, maxPages int) *Paginator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Paginator{
		client:         client,
		extractor:      extractor,
		baseURL:        extractor.baseURL,
		maxPages:       maxPages,
		retryConfig:    retry.PageFetchConfig(),
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageFetchConfig(source)),
	}
}

// Walk fetches the pagination chain starting at startURL and returns all
// extracted documents sorted by publish date descending, truncated to limit
// when limit > 0. A page that fails after retries ends the walk early with
// the partial results accumulated so far; Walk itself fails only on invalid
// input.
func (p *Paginator) Walk(ctx context.Context, startURL, organization string, limit int) ([]entity.Document, error) {
	if startURL == "" {
		return nil, fmt.Errorf("walk: %w: empty start URL", entity.ErrInvalidInput)
	}

	logger := slog.Default()
	var all []entity.Document
	seen := make(map[string]struct{})
	current := startURL

	for page := 1; page <= p.maxPages; page++ {
		doc, err := p.fetchPage(ctx, current)
		if err != nil {
			// partial results from earlier pages are kept
			logger.Warn("page fetch failed, ending pagination walk",
				slog.String("organization", organization),
				slog.String("url", current),
				slog.Int("page", page),
				slog.Any("error", err))
			break
		}

		pageDocs := p.extractor.ExtractDocuments(doc, organization, seen)
		// pages run newest to oldest, so older pages are prepended; the final
		// sort below is the authoritative order regardless of fetch order
		all = append(pageDocs, all...)

		logger.Debug("page extracted",
			slog.String("organization", organization),
			slog.Int("page", page),
			slog.Int("documents", len(pageDocs)),
			slog.Int("accumulated", len(all)))

		if limit > 0 && len(all) >= limit {
			break
		}

		next := p.nextPageURL(doc)
		if next == "" {
			break
		}
		if next == current {
			logger.Warn("pagination self-loop detected",
				slog.String("organization", organization),
				slog.String("url", current))
			break
		}
		current = next
	}

	entity.SortByDateDesc(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// fetchPage downloads and parses one listing page, retrying transient
// failures with backoff and routing requests through the circuit breaker.
func (p *Paginator) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		result, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doFetch(ctx, pageURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("page fetch circuit breaker open, request rejected",
					slog.String("circuit", p.circuitBreaker.Name()),
					slog.String("url", pageURL))
			}
			return err
		}
		doc = result.(*goquery.Document)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return doc, nil
}

func (p *Paginator) doFetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8")

	resp, err := p.client.Do(req)
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

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// nextPageURL discovers the next page of the pagination chain, or "" when the
// chain is exhausted. Two heuristics, matching the site's markup: a
// pagination-container link titled "Следующая", or the anchor wrapping a
// right-caret icon.
func (p *Paginator) nextPageURL(doc *goquery.Document) string {
	nav := doc.Find(".page-navigation").First()
	if nav.Length() == 0 {
		return ""
	}

	link := nav.Find(`a[title="Следующая"]`).First()
	if link.Length() == 0 {
		link = nav.Find("i.fa-caret-right").First().Closest("a")
	}

	href, ok := link.Attr("href")
	if !ok || href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return cleanNextURL(p.baseURL.ResolveReference(ref))
}

// cleanNextURL strips the fragment from a next-page URL, promoting a page
// index carried in the fragment (…#index=3) into the query string so the
// request actually lands on the right page.
func cleanNextURL(u *url.URL) string {
	if u.Fragment != "" {
		if m := indexParamRe.FindStringSubmatch(u.Fragment); m != nil {
			q := u.Query()
			q.Set("index", m[1])
			u.RawQuery = q.Encode()
		}
		u.Fragment = ""
	}
	return u.String()
}
