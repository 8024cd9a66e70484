// Package engine owns the working collection of an estimation session: the
// enriched rows, their original input records, and every operation that
// reads or mutates them.
//
// Commands on a Session are serialized by its mutex. The lock is released
// while a catalog lookup is in flight; a per-row revision token makes sure a
// late lookup result never overwrites a newer state.
package engine

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup"
)

// Reinforcement lookup defaults.
const (
	DefaultReinforcementLabel = "Reinforcing steel"
	DefaultKgPerM3            = 100.0
)

// DefaultReinforcementKeywords are the substrings one of which a catalog
// name must contain to be accepted as reinforcement steel.
func DefaultReinforcementKeywords() []string {
	return []string{"reinforc", "rebar", "bewehrung", "betonstahl", "armierung"}
}

// Session is one user's working set of rows.
type Session struct {
	mu sync.Mutex

	lookup  lookup.Lookup
	rows    []*WorkingRow
	records map[RowID]inventory.Record

	warnings []string
	revision uint64

	reinforcementLabel    string
	reinforcementKeywords []string

	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithReinforcementLabel sets the label looked up for reinforcement steel.
func WithReinforcementLabel(label string) Option {
	return func(s *Session) {
		if strings.TrimSpace(label) != "" {
			s.reinforcementLabel = label
		}
	}
}

// WithReinforcementKeywords sets the substrings accepted as reinforcement.
func WithReinforcementKeywords(keywords []string) Option {
	return func(s *Session) {
		var kw []string
		for _, k := range keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		if len(kw) > 0 {
			s.reinforcementKeywords = kw
		}
	}
}

// NewSession returns an empty session resolving rows through l.
func NewSession(l lookup.Lookup, opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		lookup:                l,
		records:               make(map[RowID]inventory.Record),
		reinforcementLabel:    DefaultReinforcementLabel,
		reinforcementKeywords: DefaultReinforcementKeywords(),
		createdAt:             now,
		updatedAt:             now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest appends input rows to the session, resolving every non-area row
// with a single lookup call.
//
// Parameters:
//   - ctx: context for cancellation and logging
//   - input: parsed inventory rows with their original records
//
// Returns the created rows in input order. A failed lookup does not fail
// the ingest: the rows are created as fetch-error rows and a warning is
// raised. Only cancellation of ctx is returned as an error, with no rows
// created.
func (s *Session) Ingest(ctx context.Context, input []inventory.Row) ([]WorkingRow, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	rows := make([]*WorkingRow, len(input))
	var toResolve []inventory.Item
	var resolveIdx []int
	for i, in := range input {
		item := in.Item.Normalize()
		rows[i] = &WorkingRow{ID: newRowID(), Item: item}
		if item.IsArea() {
			rows[i].MatchedEntryName = item.MaterialLabel
			continue
		}
		toResolve = append(toResolve, item)
		resolveIdx = append(resolveIdx, i)
	}

	var results []lookup.Result
	var lookupErr error
	if len(toResolve) > 0 {
		results, lookupErr = s.lookup.Lookup(ctx, toResolve)
		if lookupErr == nil && len(results) != len(toResolve) {
			lookupErr = lookup.ErrMalformedResponse
		}
	}

	if lookupErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	for j, i := range resolveIdx {
		if lookupErr != nil {
			applyFetchError(rows[i])
			continue
		}
		applyResult(rows[i], results[j])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WorkingRow, len(rows))
	for i, r := range rows {
		r.Revision = s.nextRevision()
		s.rows = append(s.rows, r)
		s.records[r.ID] = input[i].Record.Clone()
	}
	if lookupErr != nil {
		s.addWarning(FetchErrorWarning)
		log.Warn().
			Str("component", "engine").
			Str("operation", "ingest").
			Int("row_count", len(rows)).
			Err(lookupErr).
			Msg("catalog lookup failed, rows marked as fetch errors")
	}
	s.inferAreas()
	for i, r := range rows {
		out[i] = r.clone()
	}
	s.touch()

	log.Debug().
		Str("component", "engine").
		Str("operation", "ingest").
		Int("row_count", len(rows)).
		Int("resolved_count", len(toResolve)).
		Dur("duration", time.Since(start)).
		Msg("ingest complete")

	return out, nil
}

// Rows returns copies of all rows in working order.
func (s *Session) Rows() []WorkingRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WorkingRow, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.clone()
	}
	return out
}

// Row returns a copy of the row with id.
func (s *Session) Row(id RowID) (WorkingRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.find(id)
	if !ok {
		return WorkingRow{}, ErrRowNotFound
	}
	return r.clone(), nil
}

// Len returns the number of rows.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Snapshot returns rows paired with their original records, in working
// order. With no ids every row is returned; otherwise only the named rows,
// still in working order. Unknown ids return ErrRowNotFound.
func (s *Session) Snapshot(ids ...RowID) ([]RowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(ids); err != nil {
		return nil, err
	}
	want := idSet(ids)

	out := make([]RowRecord, 0, len(s.rows))
	for _, r := range s.rows {
		if len(want) > 0 && !want[r.ID] {
			continue
		}
		rr := RowRecord{Row: r.clone()}
		if rec, ok := s.records[r.ID]; ok {
			c := rec.Clone()
			rr.Record = &c
		}
		out = append(out, rr)
	}
	return out, nil
}

// Warnings returns the session's banner messages.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the session was last mutated.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) find(id RowID) (*WorkingRow, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return s.rows[i], true
}

func (s *Session) index(id RowID) int {
	return slices.IndexFunc(s.rows, func(r *WorkingRow) bool { return r.ID == id })
}

func (s *Session) checkIDs(ids []RowID) error {
	for _, id := range ids {
		if s.index(id) < 0 {
			return &RowError{ID: id, Err: ErrRowNotFound}
		}
	}
	return nil
}

func (s *Session) nextRevision() uint64 {
	s.revision++
	return s.revision
}

func (s *Session) addWarning(w string) {
	if !slices.Contains(s.warnings, w) {
		s.warnings = append(s.warnings, w)
	}
}

func (s *Session) touch() { s.updatedAt = time.Now() }

// inferAreas sets the area of every non-area row without an explicit
// assignment to the summed quantity of the area rows of its element.
func (s *Session) inferAreas() {
	areas := make(map[string]float64)
	for _, r := range s.rows {
		if r.IsArea() && r.Quantity > 0 {
			areas[r.Element] += r.Quantity
		}
	}
	for _, r := range s.rows {
		if r.IsArea() || r.areaAssigned {
			continue
		}
		if a, ok := areas[r.Element]; ok {
			r.Area = &a
		} else {
			r.Area = nil
		}
	}
}

// applyResult copies a lookup result onto r and clears override state.
func applyResult(r *WorkingRow, res lookup.Result) {
	r.MassKg = res.MassKg
	r.GWP = res.GWP
	r.Burden = res.Burden
	r.Energy = res.Energy
	r.Density = copyPtr(res.Density)
	r.MatchScore = copyPtr(res.MatchScore)
	r.Candidates = append([]catalog.Entry(nil), res.CandidateEntries...)
	r.FetchError = false
	r.Overridden = false

	switch {
	case res.Excluded || r.IsArea():
		r.MatchedEntry, r.MatchedEntryID = nil, nil
		r.MatchedEntryName = r.MaterialLabel
	case res.MatchedEntry != nil:
		e := *res.MatchedEntry
		id := e.ID
		r.MatchedEntry, r.MatchedEntryID = &e, &id
		r.MatchedEntryName = e.Name
	default:
		r.MatchedEntry, r.MatchedEntryID = nil, nil
		r.MatchedEntryName = UnmatchedLabel
	}
}

// applyFetchError gives r the fallback values used when the catalog could
// not be reached: mass passes through for kg rows, everything else is zero.
func applyFetchError(r *WorkingRow) {
	r.MassKg = 0
	if r.Unit == impact.UnitKg {
		r.MassKg = r.Quantity
	}
	r.GWP, r.Burden, r.Energy = 0, 0, 0
	r.MatchedEntry, r.MatchedEntryID, r.MatchScore, r.Density = nil, nil, nil, nil
	r.MatchedEntryName = FetchErrorLabel
	r.Candidates = []catalog.Entry{}
	r.FetchError = true
}

func newRowID() RowID {
	return RowID(ulid.Make().String())
}

// uniqueIDs drops repeated ids, keeping first-seen order.
func uniqueIDs(ids []RowID) []RowID {
	seen := make(map[RowID]bool, len(ids))
	out := make([]RowID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func idSet(ids []RowID) map[RowID]bool {
	set := make(map[RowID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
