package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/catalog/cache"
	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/lookup"
	"github.com/rshade/boqlca/internal/matcher"
)

// backend is the lookup stack built from configuration. Provider is nil
// when lookups go to a remote service.
type backend struct {
	Lookup   lookup.Lookup
	Provider catalog.Provider
	Cached   *cache.CachedProvider

	closers []func()
}

// Close releases database pools held by the backend.
func (b *backend) Close() {
	for _, c := range b.closers {
		c()
	}
}

// openBackend builds the catalog provider, snapshot cache, matcher and
// lookup described by cfg.
//
// Parameters:
//   - ctx: context for connecting database providers
//   - cfg: validated configuration
//
// Returns the backend, or config.ErrCatalogNotConfigured when no catalog
// source is set.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}

	if cfg.Catalog.Source == config.SourceRemote {
		timeout := time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second
		client := &http.Client{Timeout: timeout}
		return &backend{Lookup: lookup.NewRemote(cfg.Catalog.URL, client)}, nil
	}

	b := &backend{}
	provider, err := openProvider(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	if p, ok := provider.(*catalog.PostgresProvider); ok {
		b.closers = append(b.closers, p.Close)
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		b.Close()
		return nil, err
	}
	store, err := cache.NewFileStore(cacheDir, cfg.Cache.Enabled, cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warn().Err(err).Msg("catalog cache unavailable, reading catalog directly")
		store, _ = cache.NewFileStore("", false, 0)
	}
	b.Cached = cache.NewCachedProvider(provider, store)
	b.Provider = b.Cached

	m, err := newMatcher(cfg.Matcher)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Lookup = lookup.NewLocal(b.Provider, m)
	return b, nil
}

// openProvider returns the uncached provider for a catalog source.
func openProvider(ctx context.Context, cc config.CatalogConfig) (catalog.Provider, error) {
	switch cc.Source {
	case config.SourceFile:
		return catalog.NewFileProvider(cc.Path), nil
	case config.SourceSQLite:
		return catalog.NewSQLiteProvider(cc.Path, cc.Table)
	case config.SourcePostgres:
		return catalog.NewPostgresProvider(ctx, cc.DSN, cc.Table)
	default:
		return nil, fmt.Errorf("%w: catalog source %q has no local provider", config.ErrInvalidConfig, cc.Source)
	}
}

func newMatcher(mc config.MatcherConfig) (*matcher.Matcher, error) {
	policy, err := matcher.ParseFallbackPolicy(mc.FallbackPolicy)
	if err != nil {
		return nil, err
	}
	opts := []matcher.Option{matcher.WithFallbackPolicy(policy)}
	if len(mc.Categories) > 0 {
		opts = append(opts, matcher.WithCategories(mc.Categories))
	}
	return matcher.New(opts...)
}

// sessionOptions maps the reinforcement section to engine options.
func sessionOptions(cfg *config.Config) []engine.Option {
	return []engine.Option{
		engine.WithReinforcementLabel(cfg.Reinforcement.Label),
		engine.WithReinforcementKeywords(cfg.Reinforcement.Keywords),
	}
}
