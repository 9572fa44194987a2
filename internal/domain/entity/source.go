package entity

import "fmt"

// Source keys for the three tracked publishing organizations.
const (
	SourceFederal      = "federal"
	SourceRegional     = "regional"
	SourceRosobrnadzor = "rosobrnadzor"
)

// Source describes one tracked publishing organization: its stable key used
// in persisted state, the full organization name as it appears in extracted
// records, the identifier of the organization in the open-data index, and a
// fallback listing URL used when the index is unavailable.
type Source struct {
	Key          string `yaml:"key"`
	Organization string `yaml:"organization"`
	IndexID      string `yaml:"index_id"`
	ListingURL   string `yaml:"listing_url"`
}

// Validate checks that the source carries a known key and a non-empty
// organization name.
func (s *Source) Validate() error {
	if !IsSourceKey(s.Key) {
		return fmt.Errorf("invalid source key: %q (must be %s, %s, or %s)",
			s.Key, SourceFederal, SourceRegional, SourceRosobrnadzor)
	}
	if s.Organization == "" {
		return &ValidationError{Field: "organization", Message: "must not be empty"}
	}
	return nil
}

// SourceKeys returns the three tracked source keys in their canonical order.
func SourceKeys() []string {
	return []string{SourceFederal, SourceRegional, SourceRosobrnadzor}
}

// IsSourceKey reports whether key names one of the three tracked sources.
func IsSourceKey(key string) bool {
	switch key {
	case SourceFederal, SourceRegional, SourceRosobrnadzor:
		return true
	}
	return false
}

// DefaultSources returns the built-in source catalog. A YAML catalog file
// may override it at startup.
func DefaultSources() []Source {
	return []Source{
		{
			Key:          SourceFederal,
			Organization: "Министерство просвещения Российской Федерации",
			IndexID:      "a86f12ae-1908-4059-86a5-0803ea08f5ec",
			ListingURL:   "http://publication.pravo.gov.ru/Department/View/262?sort=PublicationDate_desc&page=1",
		},
		{
			Key:          SourceRegional,
			Organization: "Министерство образования и науки Республики Саха (Якутия)",
			IndexID:      "39ec279e-970f-43c0-85b7-4aba57163bb7",
			ListingURL:   "http://publication.pravo.gov.ru/Department/View/39ec279e-970f-43c0-85b7-4aba57163bb7?sort=PublicationDate_desc&page=1",
		},
		{
			Key:          SourceRosobrnadzor,
			Organization: "Федеральная служба по надзору в сфере образования и науки",
			IndexID:      "6fcb828d-55bf-4e1f-bb57-f9ce6cfefc0d",
			ListingURL:   "http://publication.pravo.gov.ru/Department/View/320?sort=PublicationDate_desc&page=1",
		},
	}
}
