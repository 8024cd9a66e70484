package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup"
)

const reinforcementElement = "Reinforcement"

// DeriveReinforcement creates one reinforcement-steel row per volume row
// among parents, with a mass of volume × kgPerM3.
//
// The steel entry is resolved with a single lookup of the session's
// reinforcement label, made without holding the lock. If the best match is
// not confident or its name contains none of the reinforcement keywords the
// whole call fails with ErrReinforcementNotFound and nothing changes.
// A parent named more than once gets one derived row. Parents that are not volume rows, or were deleted during the lookup, are
// skipped. Each derived row is placed after its parent and any rows
// derived from it earlier.
func (s *Session) DeriveReinforcement(ctx context.Context, parents []RowID, kgPerM3 float64) ([]WorkingRow, error) {
	log := logging.FromContext(ctx)

	if kgPerM3 <= 0 || math.IsNaN(kgPerM3) || math.IsInf(kgPerM3, 0) {
		return nil, fmt.Errorf("%w: kg per m3 must be positive, got %v", ErrInvalidArgument, kgPerM3)
	}

	s.mu.Lock()
	if err := s.checkIDs(parents); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	label := s.reinforcementLabel
	keywords := s.reinforcementKeywords
	s.mu.Unlock()

	steel, score, err := s.resolveReinforcement(ctx, label, keywords)
	if err != nil {
		log.Warn().
			Str("component", "engine").
			Str("operation", "derive_reinforcement").
			Str("label", label).
			Err(err).
			Msg("reinforcement entry lookup failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []WorkingRow
	for _, pid := range uniqueIDs(parents) {
		idx := s.index(pid)
		if idx < 0 {
			continue
		}
		parent := s.rows[idx]
		if parent.Unit != impact.UnitM3 {
			continue
		}

		row := s.derivedRow(parent, steel, score, kgPerM3)
		at := idx + 1
		for at < len(s.rows) && s.rows[at].DerivedFrom != nil && *s.rows[at].DerivedFrom == parent.ID {
			at++
		}
		s.rows = append(s.rows, nil)
		copy(s.rows[at+1:], s.rows[at:])
		s.rows[at] = row
		created = append(created, row.clone())
	}

	if len(created) > 0 {
		s.inferAreas()
		for i := range created {
			r, _ := s.find(created[i].ID)
			created[i] = r.clone()
		}
		s.touch()
	}

	log.Debug().
		Str("component", "engine").
		Str("operation", "derive_reinforcement").
		Str("entry", steel.Name).
		Int("parent_count", len(parents)).
		Int("created_count", len(created)).
		Float64("kg_per_m3", kgPerM3).
		Msg("reinforcement rows derived")

	return created, nil
}

func (s *Session) resolveReinforcement(ctx context.Context, label string, keywords []string) (catalog.Entry, float64, error) {
	probe := inventory.NewItem(reinforcementElement, label, 1, string(impact.UnitKg))
	results, err := s.lookup.Lookup(ctx, []inventory.Item{probe})
	if err != nil {
		return catalog.Entry{}, 0, fmt.Errorf("looking up reinforcement entry: %w", err)
	}
	if len(results) != 1 {
		return catalog.Entry{}, 0, fmt.Errorf("%w: %w", ErrReinforcementNotFound, lookup.ErrMalformedResponse)
	}

	res := results[0]
	if !res.Confident() {
		return catalog.Entry{}, 0, fmt.Errorf("%w: no confident match for %q", ErrReinforcementNotFound, label)
	}
	if !IsReinforcement(res.MatchedEntry.Name, keywords) {
		return catalog.Entry{}, 0, fmt.Errorf("%w: best match %q is not reinforcement steel", ErrReinforcementNotFound, res.MatchedEntry.Name)
	}

	score := 1.0
	if res.MatchScore != nil {
		score = *res.MatchScore
	}
	return *res.MatchedEntry, score, nil
}

// IsReinforcement reports whether name contains one of keywords,
// case-insensitively.
func IsReinforcement(name string, keywords []string) bool {
	n := strings.ToLower(name)
	for _, k := range keywords {
		if k != "" && strings.Contains(n, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// derivedRow builds the kg row for parent. The caller holds the lock.
func (s *Session) derivedRow(parent *WorkingRow, steel catalog.Entry, score, kgPerM3 float64) *WorkingRow {
	qty := parent.Quantity * kgPerM3
	entry := steel
	id := steel.ID
	pid := parent.ID
	computed := impact.Compute(impact.Input{Quantity: qty, Unit: impact.UnitKg}, &entry, true)

	return &WorkingRow{
		ID: newRowID(),
		Item: inventory.Item{
			Element:       parent.Element,
			MaterialLabel: steel.Name,
			Quantity:      qty,
			Unit:          impact.UnitKg,
		},
		MatchedEntryID:   &id,
		MatchedEntryName: steel.Name,
		MatchedEntry:     &entry,
		MatchScore:       &score,
		MassKg:           computed.MassKg,
		GWP:              computed.GWP,
		Burden:           computed.Burden,
		Energy:           computed.Energy,
		Candidates:       []catalog.Entry{steel},
		Density:          copyPtr(steel.Density),
		DerivedFrom:      &pid,
		Revision:         s.nextRevision(),
	}
}
