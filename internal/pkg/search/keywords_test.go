package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"plain terms kept", "образование качество", []string{"образование", "качество"}},
		{"stop word dropped", "приказ образование качество", []string{"образование", "качество"}},
		{"only stop words", "приказ распоряжение федерации", []string{}},
		{"short tokens dropped", "об из образование", []string{"образование"}},
		{"lowercased", "ОБРАЗОВАНИЕ", []string{"образование"}},
		{"empty query", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.query)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Keywords(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestMatchesAll(t *testing.T) {
	title := "приказ об оценке качества образования"
	org := "министерство просвещения российской федерации"

	if !MatchesAll([]string{"образования", "качества"}, title, org) {
		t.Error("expected AND match across title")
	}
	if !MatchesAll([]string{"просвещения"}, title, org) {
		t.Error("expected match against organization")
	}
	// one keyword missing from both its fields fails the whole match
	if MatchesAll([]string{"образования", "аккредитация"}, title, org) {
		t.Error("matched despite missing keyword")
	}
	// no keywords means no match, never "match everything"
	if MatchesAll(nil, title, org) {
		t.Error("empty keyword set matched")
	}
}
