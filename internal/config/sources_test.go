package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pravo-monitor/internal/domain/entity"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSources_EmptyPathReturnsBuiltin(t *testing.T) {
	sources, err := LoadSources("")
	require.NoError(t, err)

	assert.Equal(t, entity.DefaultSources(), sources)
	assert.Len(t, sources, 3)
}

func TestLoadSources_CatalogOverridesBuiltin(t *testing.T) {
	path := writeCatalog(t, `
sources:
  - key: federal
    organization: "Министерство просвещения Российской Федерации"
    index_id: "custom-index-id"
    listing_url: "http://publication.pravo.gov.ru/Department/View/262?page=1"
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)

	require.Len(t, sources, 1)
	assert.Equal(t, entity.SourceFederal, sources[0].Key)
	assert.Equal(t, "custom-index-id", sources[0].IndexID)
	assert.Equal(t, "Министерство просвещения Российской Федерации", sources[0].Organization)
}

func TestLoadSources_MissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read source catalog")
}

func TestLoadSources_MalformedYAML(t *testing.T) {
	path := writeCatalog(t, "sources: [not: closed")

	_, err := LoadSources(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse source catalog")
}

func TestLoadSources_EmptyCatalog(t *testing.T) {
	path := writeCatalog(t, "sources: []")

	_, err := LoadSources(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no sources")
}

func TestLoadSources_UnknownKeyRejected(t *testing.T) {
	path := writeCatalog(t, `
sources:
  - key: something-else
    organization: "Организация"
    index_id: "id"
    listing_url: "http://example.org"
`)

	_, err := LoadSources(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source key")
}

func TestLoadSources_DuplicateKeyRejected(t *testing.T) {
	path := writeCatalog(t, `
sources:
  - key: federal
    organization: "Министерство просвещения Российской Федерации"
    index_id: "a"
    listing_url: "http://example.org/a"
  - key: federal
    organization: "Министерство просвещения Российской Федерации"
    index_id: "b"
    listing_url: "http://example.org/b"
`)

	_, err := LoadSources(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}
