package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/logging"
)

// CachedProvider serves snapshots of an inner provider from a FileStore
// until they expire. Cache failures never fail a lookup: the inner provider
// is consulted instead.
type CachedProvider struct {
	inner catalog.Provider
	store *FileStore
}

// NewCachedProvider wraps inner with store.
func NewCachedProvider(inner catalog.Provider, store *FileStore) *CachedProvider {
	return &CachedProvider{inner: inner, store: store}
}

// Name implements catalog.Provider.
func (p *CachedProvider) Name() string { return p.inner.Name() }

// Snapshot implements catalog.Provider.
func (p *CachedProvider) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	log := logging.FromContext(ctx)
	if p.store == nil || !p.store.IsEnabled() {
		return p.inner.Snapshot(ctx)
	}

	key := Key(p.inner.Name())
	entry, err := p.store.Get(key)
	switch {
	case err == nil:
		var snap catalog.Snapshot
		if decodeErr := json.Unmarshal(entry.Data, &snap); decodeErr == nil {
			log.Debug().
				Ctx(ctx).
				Str("component", "catalog_cache").
				Str("provider", p.inner.Name()).
				Dur("age", entry.Age()).
				Msg("catalog snapshot served from cache")
			return &snap, nil
		}
		log.Warn().Ctx(ctx).Str("component", "catalog_cache").Msg("discarding undecodable cache entry")
		_ = p.store.Delete(key)
	case errors.Is(err, ErrCacheNotFound), errors.Is(err, ErrCacheExpired):
	default:
		log.Warn().Ctx(ctx).Str("component", "catalog_cache").Err(err).Msg("catalog cache read failed")
	}

	snap, err := p.inner.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(snap)
	if err == nil {
		err = p.store.Set(key, data)
	}
	if err != nil {
		log.Warn().Ctx(ctx).Str("component", "catalog_cache").Err(err).Msg("catalog cache write failed")
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for the inner provider.
func (p *CachedProvider) Invalidate() error {
	if p.store == nil || !p.store.IsEnabled() {
		return nil
	}
	return p.store.Delete(Key(p.inner.Name()))
}
