// Package config loads boqlca settings from ~/.boqlca/config.yaml, an
// optional project overlay and BOQLCA_* environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/boqlca/internal/catalog/cache"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/matcher"
)

// Catalog source types.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRemote   = "remote"
)

// Output formats for the estimate command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Defaults.
const (
	DefaultCatalogTable     = "materials"
	DefaultServerAddr       = ":8080"
	DefaultMaxSessions      = 100
	DefaultSessionIdleMins  = 60
	DefaultOutputPrecision  = 2
	DefaultCarbonUnit       = "kg"
	DefaultRemoteTimeoutSec = 30
	configFileName          = "config.yaml"
)

// Config is the complete boqlca configuration.
type Config struct {
	Catalog       CatalogConfig       `yaml:"catalog" json:"catalog"`
	Matcher       MatcherConfig       `yaml:"matcher" json:"matcher"`
	Input         InputConfig         `yaml:"input" json:"input"`
	Export        ExportConfig        `yaml:"export" json:"export"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	Cache         CacheConfig         `yaml:"cache" json:"cache"`
	Reinforcement ReinforcementConfig `yaml:"reinforcement" json:"reinforcement"`

	path string
}

// CatalogConfig selects where reference materials come from.
//
// Example:
//
//	catalog:
//	  source: sqlite
//	  path: ~/.boqlca/materials.db
//	  table: materials
type CatalogConfig struct {
	// Source is one of file, sqlite, postgres or remote.
	Source string `yaml:"source" json:"source"`

	// Path is the catalog file (file) or database file (sqlite).
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn,omitempty" json:"-"`

	// Table holds the entries in sqlite and postgres sources.
	Table string `yaml:"table,omitempty" json:"table,omitempty"`

	// URL is the base URL of a remote lookup service.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// TimeoutSeconds bounds one remote lookup call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// MatcherConfig tunes label matching.
type MatcherConfig struct {
	// FallbackPolicy is capped, uncapped or normalized.
	FallbackPolicy string `yaml:"fallback_policy" json:"fallback_policy"`

	// Categories replaces the built-in category table when non-empty.
	Categories []matcher.Category `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// InputConfig describes uploaded inventories.
type InputConfig struct {
	Mapping inventory.Mapping `yaml:"mapping" json:"mapping"`

	// Delimiter is a single character, "tab", or empty to detect it.
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
}

// ExportConfig controls delimited exports.
type ExportConfig struct {
	Delimiter    string `yaml:"delimiter" json:"delimiter"`
	IncludeRates bool   `yaml:"include_rates" json:"include_rates"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision" json:"precision"`
	CarbonUnit    string `yaml:"carbon_unit" json:"carbon_unit"`
	Locale        string `yaml:"locale,omitempty" json:"locale,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr" json:"addr"`
	MaxSessions     int    `yaml:"max_sessions" json:"max_sessions"`
	SessionIdleMins int    `yaml:"session_idle_minutes" json:"session_idle_minutes"`
}

// CacheConfig controls the on-disk catalog snapshot cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds" json:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// ReinforcementConfig controls reinforcement derivation.
type ReinforcementConfig struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	KgPerM3  float64  `yaml:"kg_per_m3" json:"kg_per_m3"`
}

// Default returns the built-in configuration. The catalog is left
// unconfigured.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Table:          DefaultCatalogTable,
			TimeoutSeconds: DefaultRemoteTimeoutSec,
		},
		Matcher: MatcherConfig{FallbackPolicy: string(matcher.FallbackCapped)},
		Input:   InputConfig{Mapping: inventory.DefaultMapping()},
		Export:  ExportConfig{Delimiter: ";"},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
			Precision:     DefaultOutputPrecision,
			CarbonUnit:    DefaultCarbonUnit,
		},
		Logging: LoggingConfig{Level: "info", Format: logging.FormatConsole},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			MaxSessions:     DefaultMaxSessions,
			SessionIdleMins: DefaultSessionIdleMins,
		},
		Cache: CacheConfig{Enabled: true, TTLSeconds: cache.DefaultTTLSeconds},
		Reinforcement: ReinforcementConfig{
			Label:    engine.DefaultReinforcementLabel,
			Keywords: engine.DefaultReinforcementKeywords(),
			KgPerM3:  engine.DefaultKgPerM3,
		},
	}
}

// New returns the defaults overlaid with ~/.boqlca/config.yaml, when it
// exists, and the environment. A broken config file is logged and skipped.
func New() *Config {
	cfg := Default()
	if dir, err := GetConfigDir(); err == nil {
		path := filepath.Join(dir, configFileName)
		if _, statErr := os.Stat(path); statErr == nil {
			if loadErr := cfg.loadFile(path); loadErr != nil {
				Logger.Warn().
					Str("component", "config").
					Str("operation", "load").
					Str("path", path).
					Err(loadErr).
					Msg("ignoring unreadable config file")
			}
		}
	}
	cfg.ApplyEnv()
	return cfg
}

// Load reads path over the defaults and applies the environment. Unlike
// New, a missing or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadWithOverlay loads the global config (or path when set) and then
// shallow-merges the project overlay found from startDir.
func LoadWithOverlay(ctx context.Context, path, projectFlag, startDir string) (*Config, error) {
	var cfg *Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = New()
	}

	projectDir := ResolveProjectDir(ctx, projectFlag, startDir)
	if projectDir == "" {
		return cfg, nil
	}
	return MergeProjectConfig(ctx, cfg, projectDir), nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string { return c.path }

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// DefaultPath returns ~/.boqlca/config.yaml, honouring BOQLCA_HOME.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// CacheDir returns the configured cache directory or the default one
// under the config directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

// InferCatalogSource guesses a source type from a catalog path: .db,
// .sqlite and .sqlite3 are SQLite databases, everything else a file.
func InferCatalogSource(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	default:
		return SourceFile
	}
}

// ParseDelimiter turns a configured delimiter into a rune. Empty and "auto"
// return 0, meaning detect; "tab" and `\t` return a tab.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("%w: delimiter %q must be a single character", ErrInvalidConfig, s)
	}
	return r[0], nil
}
