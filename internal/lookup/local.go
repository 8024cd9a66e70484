package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup/batch"
	"github.com/rshade/boqlca/internal/matcher"
)

// Local resolves items in process against a catalog provider. Each call
// takes one snapshot and shares it read-only across all items.
type Local struct {
	provider  catalog.Provider
	matcher   *matcher.Matcher
	batchSize int
}

// LocalOption configures a Local.
type LocalOption func(*Local)

// WithBatchSize sets the chunk size used when resolving large inventories.
func WithBatchSize(n int) LocalOption {
	return func(l *Local) {
		l.batchSize = n
	}
}

// NewLocal returns a Local lookup. A nil matcher selects matcher.Default().
func NewLocal(provider catalog.Provider, m *matcher.Matcher, opts ...LocalOption) *Local {
	if m == nil {
		m = matcher.Default()
	}
	l := &Local{provider: provider, matcher: m, batchSize: batch.DefaultBatchSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Provider returns the underlying catalog provider.
func (l *Local) Provider() catalog.Provider { return l.provider }

// Lookup implements Lookup.
func (l *Local) Lookup(ctx context.Context, items []inventory.Item) (results []Result, err error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	defer func() { observeDuration("local", err, time.Since(start).Seconds()) }()

	snap, err := l.provider.Snapshot(ctx)
	if err != nil {
		log.Warn().
			Str("component", "lookup").
			Str("operation", "snapshot").
			Str("provider", l.provider.Name()).
			Err(err).
			Msg("catalog snapshot failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	proc, err := batch.NewProcessor[inventory.Item](l.batchSize)
	if err != nil {
		return nil, err
	}
	proc.WithProgressCallback(func(p *batch.Progress) {
		s := p.Snapshot()
		log.Debug().
			Str("component", "lookup").
			Int("processed", s.ProcessedItems).
			Int("total", s.TotalItems).
			Msg("lookup progress")
	})

	results, err = batch.Map(ctx, proc, items, func(_ context.Context, chunk []inventory.Item) ([]Result, error) {
		out := make([]Result, len(chunk))
		for i, it := range chunk {
			out[i] = l.Resolve(it, snap.Entries)
			recordOutcome(out[i])
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("component", "lookup").
		Str("operation", "lookup").
		Str("provider", l.provider.Name()).
		Int("item_count", len(items)).
		Int("catalog_size", snap.Len()).
		Dur("duration", time.Since(start)).
		Msg("lookup complete")

	return results, nil
}

// Resolve matches and computes a single item against entries.
func (l *Local) Resolve(item inventory.Item, entries []catalog.Entry) Result {
	item = item.Normalize()
	if item.IsArea() {
		return Result{Excluded: true, CandidateEntries: []catalog.Entry{}}
	}

	m := l.matcher.Match(item.MaterialLabel, entries)
	score := m.Score
	res := Result{
		MatchScore:       &score,
		CandidateEntries: unitCandidates(item.Unit, m.Candidates),
	}

	var entry *catalog.Entry
	if m.Confident() {
		entry = m.Best
		name := entry.Name
		res.MatchedEntry = entry
		res.MatchedEntryName = &name
		res.Density = entry.Density
	}

	computed := impact.Compute(item.Input(), entry, entry != nil)
	res.MassKg = computed.MassKg
	res.GWP = computed.GWP
	res.Burden = computed.Burden
	res.Energy = computed.Energy
	return res
}

// unitCandidates narrows volume candidates to entries with a density, since
// only those can yield a mass. When none has a density the list is kept.
func unitCandidates(unit impact.Unit, candidates []catalog.Entry) []catalog.Entry {
	if unit != impact.UnitM3 {
		return candidates
	}
	var dense []catalog.Entry
	for _, c := range candidates {
		if c.HasDensity() {
			dense = append(dense, c)
		}
	}
	if len(dense) == 0 {
		return candidates
	}
	return dense
}
