// Package scraper implements incremental document discovery against the
// publication site: per-page extraction of document records, a paginating
// walker that follows "next page" links, and the open-data index client that
// maps organizations to their listing pages.
package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pravo-monitor/internal/domain/entity"
)

// dateRe matches the DD.MM.YYYY dates shown next to document links.
var dateRe = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)

const (
	// titleAncestorLevels bounds the upward walk when a link has no usable text.
	titleAncestorLevels = 3

	// dateAncestorLevels bounds the upward walk when looking for a date.
	dateAncestorLevels = 5

	// minAncestorTitleLen filters out ancestor text too short to be a title.
	minAncestorTitleLen = 10
)

// Extractor pulls candidate document records out of a single listing page.
// It never fails: a malformed record is skipped and extraction continues.
type Extractor struct {
	baseURL *url.URL
}

// NewExtractor creates an extractor that absolutizes relative document links
// against the given base URL.
func NewExtractor(base string) (*Extractor, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", base, err)
	}
	return &Extractor{baseURL: u}, nil
}

// ExtractDocuments returns the document records found on the page, in page
// order, deduplicated by URL. The caller-supplied seen set spans pages of the
// same source so overlapping pages do not re-add items; pass a fresh set per
// pagination walk.
func (e *Extractor) ExtractDocuments(page *goquery.Document, organization string, seen map[string]struct{}) []entity.Document {
	var docs []entity.Document

	page.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(strings.ToLower(href), "/document/") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		fullURL := e.baseURL.ResolveReference(ref).String()

		if _, ok := seen[fullURL]; ok {
			return
		}
		seen[fullURL] = struct{}{}

		docs = append(docs, entity.Document{
			Organization: organization,
			Title:        extractTitle(link, href),
			PublishDate:  extractDate(link),
			URL:          fullURL,
		})
	})

	return docs
}

// extractTitle resolves a document title through a chain of fallbacks:
// link text, then the title attribute, then nearby ancestor text, and
// finally a placeholder synthesized from the URL's trailing path segment.
// It never returns an empty string.
func extractTitle(link *goquery.Selection, href string) string {
	title := cleanText(link.Text())
	if title != "" && title != entity.NoTitle {
		return title
	}

	if attr, ok := link.Attr("title"); ok {
		if attr = cleanText(attr); attr != "" {
			return attr
		}
	}

	parent := link.Parent()
	for i := 0; i < titleAncestorLevels && parent.Length() > 0; i++ {
		text := cleanText(parent.Text())
		if len([]rune(text)) > minAncestorTitleLen {
			return text
		}
		parent = parent.Parent()
	}

	segment := href
	if idx := strings.LastIndex(href, "/"); idx >= 0 {
		segment = href[idx+1:]
	}
	return fmt.Sprintf("Документ %s", segment)
}

// extractDate finds the first DD.MM.YYYY-shaped substring in the link's
// ancestors, or the NoDate sentinel when none is present.
func extractDate(link *goquery.Selection) string {
	elem := link.Parent()
	for i := 0; i < dateAncestorLevels && elem.Length() > 0; i++ {
		if match := dateRe.FindString(elem.Text()); match != "" {
			return match
		}
		elem = elem.Parent()
	}
	return entity.NoDate
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
