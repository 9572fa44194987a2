// Package config loads deployment-level configuration files, currently the
// optional YAML catalog of tracked publishing organizations.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pravo-monitor/internal/domain/entity"
)

// SourceCatalog is the on-disk YAML shape of the tracked source list.
//
// Example:
//
//	sources:
//	  - key: federal
//	    organization: "Министерство просвещения Российской Федерации"
//	    index_id: "a86f12ae-1908-4059-86a5-0803ea08f5ec"
//	    listing_url: "http://publication.pravo.gov.ru/Department/View/262?sort=PublicationDate_desc&page=1"
type SourceCatalog struct {
	Sources []entity.Source `yaml:"sources"`
}

// LoadSources reads the tracked source catalog from path. An empty path
// returns the built-in catalog. A catalog file replaces the built-in list
// entirely: it must define at least one source and every entry must validate.
func LoadSources(path string) ([]entity.Source, error) {
	if path == "" {
		return entity.DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source catalog: %w", err)
	}

	var catalog SourceCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse source catalog %s: %w", path, err)
	}

	if len(catalog.Sources) == 0 {
		return nil, fmt.Errorf("source catalog %s defines no sources", path)
	}

	seen := make(map[string]bool, len(catalog.Sources))
	for i := range catalog.Sources {
		src := &catalog.Sources[i]
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source catalog %s entry %d: %w", path, i, err)
		}
		if seen[src.Key] {
			return nil, fmt.Errorf("source catalog %s: duplicate key %q", path, src.Key)
		}
		seen[src.Key] = true
	}

	return catalog.Sources, nil
}
