package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/matcher"
)

func validConfig() *config.Config {
	cfg := config.Default()
	cfg.Catalog.Source = config.SourceFile
	cfg.Catalog.Path = "catalog.yaml"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Empty(t, cfg.Catalog.Source)
	assert.Equal(t, "materials", cfg.Catalog.Table)
	assert.Equal(t, "capped", cfg.Matcher.FallbackPolicy)
	assert.Equal(t, "material", cfg.Input.Mapping.Material)
	assert.Equal(t, ";", cfg.Export.Delimiter)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, "Reinforcing steel", cfg.Reinforcement.Label)
	assert.InDelta(t, 100.0, cfg.Reinforcement.KgPerM3, 1e-9)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
		wantMsg string
	}{
		{name: "valid file catalog", mutate: func(*config.Config) {}},
		{
			name:    "no catalog",
			mutate:  func(c *config.Config) { c.Catalog.Source = "" },
			wantErr: config.ErrCatalogNotConfigured,
		},
		{
			name:    "file without path",
			mutate:  func(c *config.Config) { c.Catalog.Path = " " },
			wantErr: config.ErrCatalogNotConfigured,
		},
		{
			name: "postgres without dsn",
			mutate: func(c *config.Config) {
				c.Catalog = config.CatalogConfig{Source: config.SourcePostgres, Table: "materials"}
			},
			wantErr: config.ErrCatalogNotConfigured,
			wantMsg: "catalog.dsn",
		},
		{
			name: "postgres with dsn",
			mutate: func(c *config.Config) {
				c.Catalog = config.CatalogConfig{Source: config.SourcePostgres, DSN: "postgres://db/lca", Table: "materials"}
			},
		},
		{
			name:    "remote without url",
			mutate:  func(c *config.Config) { c.Catalog = config.CatalogConfig{Source: config.SourceRemote} },
			wantErr: config.ErrCatalogNotConfigured,
		},
		{
			name: "sqlite without table",
			mutate: func(c *config.Config) {
				c.Catalog = config.CatalogConfig{Source: config.SourceSQLite, Path: "m.db"}
			},
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "unknown source",
			mutate:  func(c *config.Config) { c.Catalog.Source = "s3" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "bad fallback policy",
			mutate:  func(c *config.Config) { c.Matcher.FallbackPolicy = "generous" },
			wantErr: matcher.ErrUnknownPolicy,
		},
		{
			name: "empty category",
			mutate: func(c *config.Config) {
				c.Matcher.Categories = []matcher.Category{{Tag: "x"}}
			},
			wantErr: matcher.ErrInvalidCategory,
		},
		{
			name:    "long export delimiter",
			mutate:  func(c *config.Config) { c.Export.Delimiter = ";;" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "auto export delimiter",
			mutate:  func(c *config.Config) { c.Export.Delimiter = "auto" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "no material column",
			mutate:  func(c *config.Config) { c.Input.Mapping.Material = "" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "unknown format",
			mutate:  func(c *config.Config) { c.Output.DefaultFormat = "xml" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "unknown carbon unit",
			mutate:  func(c *config.Config) { c.Output.CarbonUnit = "oz" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "bad locale",
			mutate:  func(c *config.Config) { c.Output.Locale = "not a locale!" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "no sessions",
			mutate:  func(c *config.Config) { c.Server.MaxSessions = 0 },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "ttl too short",
			mutate:  func(c *config.Config) { c.Cache.TTLSeconds = 5 },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "ttl ignored when cache disabled",
			mutate: func(c *config.Config) {
				c.Cache.Enabled = false
				c.Cache.TTLSeconds = 5
			},
		},
		{
			name:    "zero kg per m3",
			mutate:  func(c *config.Config) { c.Reinforcement.KgPerM3 = 0 },
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := config.Default()
	cfg.Output.DefaultFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrCatalogNotConfigured)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(config.EnvCatalogPath, "/data/materials.sqlite")
	t.Setenv(config.EnvCatalogTable, "kbob")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvServerAddr, "127.0.0.1:9000")
	t.Setenv(config.EnvKgPerM3, "85.5")
	t.Setenv("BOQLCA_CACHE_ENABLED", "false")
	t.Setenv("BOQLCA_CACHE_TTL_SECONDS", "2h")

	cfg := config.Default()
	cfg.ApplyEnv()

	assert.Equal(t, config.SourceSQLite, cfg.Catalog.Source, "source inferred from the path")
	assert.Equal(t, "/data/materials.sqlite", cfg.Catalog.Path)
	assert.Equal(t, "kbob", cfg.Catalog.Table)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.InDelta(t, 85.5, cfg.Reinforcement.KgPerM3, 1e-9)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 7200, cfg.Cache.TTLSeconds)
}

func TestApplyEnv_InvalidNumberIgnored(t *testing.T) {
	t.Setenv(config.EnvKgPerM3, "lots")
	cfg := config.Default()
	cfg.ApplyEnv()
	assert.InDelta(t, 100.0, cfg.Reinforcement.KgPerM3, 1e-9)
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := validConfig()
	cfg.Output.Locale = "de-CH"
	cfg.Matcher.FallbackPolicy = "normalized"
	require.NoError(t, cfg.Save(path))
	assert.Equal(t, path, cfg.Path())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "de-CH", loaded.Output.Locale)
	assert.Equal(t, "normalized", loaded.Matcher.FallbackPolicy)
	assert.Equal(t, config.SourceFile, loaded.Catalog.Source)
	require.NoError(t, loaded.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, config.DefaultMaxSessions, cfg.Server.MaxSessions)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [\n"), 0o600))
	_, err = config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadWithOverlay(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvProjectDir, "")

	globalPath := filepath.Join(t.TempDir(), "global.yaml")
	require.NoError(t, os.WriteFile(globalPath, []byte("catalog:\n  source: file\n  path: global.yaml\n"), 0o600))

	project := t.TempDir()
	projectDir := filepath.Join(project, config.ProjectDirName)
	require.NoError(t, os.MkdirAll(projectDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "config.yaml"),
		[]byte("output:\n  default_format: json\n  precision: 1\n  carbon_unit: t\n"), 0o600))

	cfg, err := config.LoadWithOverlay(context.Background(), globalPath, projectDir, "")
	require.NoError(t, err)
	assert.Equal(t, "global.yaml", cfg.Catalog.Path)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.Equal(t, 1, cfg.Output.Precision)
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "auto", want: 0},
		{in: "tab", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: ";", want: ';'},
		{in: ",", want: ','},
		{in: "|", want: '|'},
		{in: `"`, wantErr: true},
		{in: ";;", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.ParseDelimiter(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferCatalogSource(t *testing.T) {
	assert.Equal(t, config.SourceSQLite, config.InferCatalogSource("x/materials.DB"))
	assert.Equal(t, config.SourceSQLite, config.InferCatalogSource("materials.sqlite3"))
	assert.Equal(t, config.SourceFile, config.InferCatalogSource("materials.yaml"))
	assert.Equal(t, config.SourceFile, config.InferCatalogSource("materials.json"))
}

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	cfg := config.Default()
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	cfg.Cache.Directory = "/var/cache/boqlca"
	dir, err = cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/boqlca", dir)
}
