package config

import (
	"os"
	"strconv"

	"github.com/rshade/boqlca/internal/catalog/cache"
)

// Environment variables that override the config file.
const (
	EnvHome           = "BOQLCA_HOME"
	EnvProjectDir     = "BOQLCA_PROJECT_DIR"
	EnvCatalogSource  = "BOQLCA_CATALOG_SOURCE"
	EnvCatalogPath    = "BOQLCA_CATALOG_PATH"
	EnvCatalogDSN     = "BOQLCA_CATALOG_DSN"
	EnvCatalogTable   = "BOQLCA_CATALOG_TABLE"
	EnvCatalogURL     = "BOQLCA_CATALOG_URL"
	EnvFallbackPolicy = "BOQLCA_FALLBACK_POLICY"
	EnvLogLevel       = "BOQLCA_LOG_LEVEL"
	EnvLogFormat      = "BOQLCA_LOG_FORMAT"
	EnvServerAddr     = "BOQLCA_SERVER_ADDR"
	EnvKgPerM3        = "BOQLCA_REINFORCEMENT_KG_PER_M3"
)

// ApplyEnv overrides fields from BOQLCA_* variables. Unparseable numeric
// values are ignored.
func (c *Config) ApplyEnv() {
	setString(&c.Catalog.Source, EnvCatalogSource)
	setString(&c.Catalog.Path, EnvCatalogPath)
	setString(&c.Catalog.DSN, EnvCatalogDSN)
	setString(&c.Catalog.Table, EnvCatalogTable)
	setString(&c.Catalog.URL, EnvCatalogURL)
	setString(&c.Matcher.FallbackPolicy, EnvFallbackPolicy)
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setString(&c.Server.Addr, EnvServerAddr)

	if v := os.Getenv(EnvKgPerM3); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Reinforcement.KgPerM3 = f
		}
	}

	c.Cache.Enabled = cache.EnabledFromEnv(c.Cache.Enabled)
	c.Cache.TTLSeconds = cache.TTLFromEnv(c.Cache.TTLSeconds)

	if c.Catalog.Source == "" && c.Catalog.Path != "" {
		c.Catalog.Source = InferCatalogSource(c.Catalog.Path)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
