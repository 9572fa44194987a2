// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Document and Source, along with
// their validation rules and domain-specific errors.
package entity

import (
	"sort"
	"strings"
	"time"

	"pravo-monitor/internal/utils/text"
)

// DateLayout is the textual form in which publication dates appear on the
// source pages (DD.MM.YYYY). Dates are stored as-is and re-parsed for every
// comparison.
const DateLayout = "02.01.2006"

// NoDate is the sentinel stored when no DD.MM.YYYY-shaped date could be
// found near a document link.
const NoDate = "Без даты"

// NoTitle is the placeholder used when a document link carries no readable text.
const NoTitle = "Без названия"

// Document represents a single published legal act discovered on a source
// listing page. The URL is the global identity of the document: two records
// with the same URL are the same document. Records are immutable once stored.
type Document struct {
	Organization string `json:"organization"`
	Title        string `json:"documentTitle"`
	PublishDate  string `json:"publishDate"`
	URL          string `json:"url"`
}

// ParsePublishDate parses a DD.MM.YYYY date string. Unparsable values
// (including the NoDate sentinel) return the zero time, which sorts as the
// minimum date everywhere a comparison is made.
func ParsePublishDate(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// PublishedAt returns the parsed publication date of the document.
// Documents with an unparsable date sort before everything else.
func (d *Document) PublishedAt() time.Time {
	return ParsePublishDate(d.PublishDate)
}

// Validate checks that all four required fields are present.
// Unknown organizations are tolerated (the extractor may yield free-form
// values); only emptiness is rejected here.
func (d *Document) Validate() error {
	if d.URL == "" {
		return &ValidationError{Field: "url", Message: "must not be empty"}
	}
	if d.Organization == "" {
		return &ValidationError{Field: "organization", Message: "must not be empty"}
	}
	if d.Title == "" {
		return &ValidationError{Field: "documentTitle", Message: "must not be empty"}
	}
	if d.PublishDate == "" {
		return &ValidationError{Field: "publishDate", Message: "must not be empty"}
	}
	return nil
}

// SortByDateDesc sorts documents newest-first by parsed publication date.
// The sort is stable: documents with equal (or equally unparsable) dates
// keep their relative order.
func SortByDateDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].PublishedAt().After(docs[j].PublishedAt())
	})
}

// TruncateTitle shortens a title for display to at most limit runes,
// appending "..." when truncated. Stored titles are never truncated.
func TruncateTitle(title string, limit int) string {
	return text.Truncate(title, limit, "...")
}
