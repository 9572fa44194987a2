// Package search implements query tokenization for document search.
// Queries are split into keywords, stop words and short tokens are dropped,
// and the remaining keywords are matched with AND semantics against the
// lower-cased title and organization of each document.
package search

import "strings"

// minKeywordLen is the minimum keyword length in runes. Shorter tokens are
// almost always prepositions or case endings in Russian queries.
const minKeywordLen = 3

// stopWords are common administrative terms that appear in nearly every
// legal-act title and therefore carry no selectivity.
var stopWords = map[string]struct{}{
	"приказ":        {},
	"приказа":       {},
	"распоряжение":  {},
	"постановление": {},
	"российской":    {},
	"федерации":     {},
	"республики":    {},
	"министерство":  {},
	"министерства":  {},
	"федеральная":   {},
	"служба":        {},
	"внесении":      {},
	"изменении":     {},
	"изменений":     {},
	"утверждении":   {},
	"документ":      {},
	"года":          {},
	"список":        {},
}

// Keywords tokenizes a query on whitespace, lowercases each token, and drops
// stop words and tokens shorter than three runes. An empty result means the
// query has no selective terms and must match nothing, not everything.
func Keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minKeywordLen {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

// MatchesAll reports whether every keyword is a substring of at least one of
// the given fields. Fields are expected to be lower-cased by the caller.
func MatchesAll(keywords []string, fields ...string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		found := false
		for _, f := range fields {
			if strings.Contains(f, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
