package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/config"
)

// writeOverlay writes YAML content to a temp file and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
output:
  default_format: json
  precision: 3
  carbon_unit: t
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "json", target.Output.DefaultFormat)
	assert.Equal(t, 3, target.Output.Precision)
	assert.Equal(t, "t", target.Output.CarbonUnit)

	assert.Equal(t, "info", target.Logging.Level)
	assert.True(t, target.Cache.Enabled)
	assert.Equal(t, config.DefaultCatalogTable, target.Catalog.Table)
}

func TestShallowMergeYAML_SectionIsReplacedWhole(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
reinforcement:
  label: Betonstahl
  kg_per_m3: 120
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "Betonstahl", target.Reinforcement.Label)
	assert.InDelta(t, 120.0, target.Reinforcement.KgPerM3, 1e-9)
	assert.Empty(t, target.Reinforcement.Keywords, "absent fields of a replaced section are zero")
}

func TestShallowMergeYAML_Categories(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
matcher:
  fallback_policy: normalized
  categories:
    - tag: clay
      tokens: [clay, lehm]
      keywords: [clay]
      preferred: [rammed earth]
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "normalized", target.Matcher.FallbackPolicy)
	require.Len(t, target.Matcher.Categories, 1)
	assert.Equal(t, "clay", target.Matcher.Categories[0].Tag)
	assert.Equal(t, []string{"clay", "lehm"}, target.Matcher.Categories[0].Tokens)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, `
plugins:
  aws: {}
logging:
  level: debug
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "debug", target.Logging.Level)
}

func TestShallowMergeYAML_EmptyFile(t *testing.T) {
	target := config.Default()
	overlay := writeOverlay(t, "# nothing here\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, config.Default(), target)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	t.Run("nil target", func(t *testing.T) {
		err := config.ShallowMergeYAML(nil, "whatever.yaml")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.ShallowMergeYAML(config.Default(), filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading overlay file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		overlay := writeOverlay(t, "catalog: [unclosed\n")
		err := config.ShallowMergeYAML(config.Default(), overlay)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing overlay YAML")
	})

	t.Run("section of wrong shape", func(t *testing.T) {
		overlay := writeOverlay(t, "server: [1, 2]\n")
		err := config.ShallowMergeYAML(config.Default(), overlay)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `applying overlay section "server"`)
	})
}
