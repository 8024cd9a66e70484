package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/boqlca/internal/catalog/cache"
	"github.com/rshade/boqlca/internal/greenops"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/matcher"
)

// Validate checks the whole configuration once, at startup. Every problem
// found is reported; each wraps ErrCatalogNotConfigured or ErrInvalidConfig.
func (c *Config) Validate() error {
	return errors.Join(
		c.Catalog.Validate(),
		c.validateMatcher(),
		c.validateDelimiters(),
		c.validateOutput(),
		c.validateLogging(),
		c.validateServer(),
		c.validateCache(),
		c.validateReinforcement(),
	)
}

// Validate checks that the selected source has what it needs to connect.
func (cc CatalogConfig) Validate() error {
	switch cc.Source {
	case "":
		return fmt.Errorf("%w: set catalog.source or %s", ErrCatalogNotConfigured, EnvCatalogSource)
	case SourceFile, SourceSQLite:
		if strings.TrimSpace(cc.Path) == "" {
			return fmt.Errorf("%w: %s source needs catalog.path", ErrCatalogNotConfigured, cc.Source)
		}
	case SourcePostgres:
		if strings.TrimSpace(cc.DSN) == "" {
			return fmt.Errorf("%w: postgres source needs catalog.dsn or %s", ErrCatalogNotConfigured, EnvCatalogDSN)
		}
	case SourceRemote:
		if strings.TrimSpace(cc.URL) == "" {
			return fmt.Errorf("%w: remote source needs catalog.url", ErrCatalogNotConfigured)
		}
	default:
		return fmt.Errorf("%w: catalog.source %q (must be %s, %s, %s or %s)",
			ErrInvalidConfig, cc.Source, SourceFile, SourceSQLite, SourcePostgres, SourceRemote)
	}
	if cc.Source == SourceSQLite || cc.Source == SourcePostgres {
		if strings.TrimSpace(cc.Table) == "" {
			return fmt.Errorf("%w: %s source needs catalog.table", ErrInvalidConfig, cc.Source)
		}
	}
	if cc.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: catalog.timeout_seconds must be non-negative, got %d", ErrInvalidConfig, cc.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if _, err := matcher.ParseFallbackPolicy(c.Matcher.FallbackPolicy); err != nil {
		return fmt.Errorf("%w: matcher.fallback_policy: %w", ErrInvalidConfig, err)
	}
	for i, cat := range c.Matcher.Categories {
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("%w: matcher.categories[%d]: %w", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

func (c *Config) validateDelimiters() error {
	if _, err := ParseDelimiter(c.Input.Delimiter); err != nil {
		return fmt.Errorf("input.delimiter: %w", err)
	}
	d, err := ParseDelimiter(c.Export.Delimiter)
	if err != nil {
		return fmt.Errorf("export.delimiter: %w", err)
	}
	if d == 0 && c.Export.Delimiter != "" {
		return fmt.Errorf("%w: export.delimiter cannot be auto", ErrInvalidConfig)
	}
	m := c.Input.Mapping
	if strings.TrimSpace(m.Material) == "" {
		return fmt.Errorf("%w: input.mapping.material is required", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("%w: output.default_format %q (must be %s or %s)",
			ErrInvalidConfig, c.Output.DefaultFormat, FormatTable, FormatJSON)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 6 {
		return fmt.Errorf("%w: output.precision must be between 0 and 6, got %d", ErrInvalidConfig, c.Output.Precision)
	}
	if !greenops.IsRecognizedUnit(c.Output.CarbonUnit) {
		return fmt.Errorf("%w: output.carbon_unit %q", ErrInvalidConfig, c.Output.CarbonUnit)
	}
	if _, err := greenops.NewFormatter(c.Output.Locale); err != nil {
		return fmt.Errorf("%w: output.locale: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
}

func (c *Config) validateServer() error {
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("%w: server.max_sessions must be positive, got %d", ErrInvalidConfig, c.Server.MaxSessions)
	}
	if c.Server.SessionIdleMins < 0 {
		return fmt.Errorf("%w: server.session_idle_minutes must be non-negative, got %d", ErrInvalidConfig, c.Server.SessionIdleMins)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if err := cache.ValidateTTL(c.Cache.TTLSeconds); err != nil {
		return fmt.Errorf("%w: cache.ttl_seconds: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validateReinforcement() error {
	if c.Reinforcement.KgPerM3 <= 0 {
		return fmt.Errorf("%w: reinforcement.kg_per_m3 must be positive, got %v", ErrInvalidConfig, c.Reinforcement.KgPerM3)
	}
	if strings.TrimSpace(c.Reinforcement.Label) == "" {
		return fmt.Errorf("%w: reinforcement.label is required", ErrInvalidConfig)
	}
	return nil
}
