package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
)

// Override assigns entry to every named row and recomputes mass and
// impacts from the row's own quantity and unit, using the entry's density.
// Candidate lists are left alone. Area rows are skipped. If any id is
// unknown nothing is changed.
func (s *Session) Override(ids []RowID, entry catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(ids); err != nil {
		return err
	}
	for _, id := range ids {
		r, _ := s.find(id)
		s.assign(r, entry)
	}
	s.touch()
	return nil
}

// BulkUpdate applies one entry to a selection of rows. Row order is
// unchanged.
func (s *Session) BulkUpdate(ids []RowID, entry catalog.Entry) error {
	return s.Override(ids, entry)
}

// OverrideByEntryID resolves entryID against each row's candidate list (or
// its current match) and assigns it. All rows are resolved before any is
// changed; a row that does not offer the entry returns ErrEntryNotFound.
func (s *Session) OverrideByEntryID(ids []RowID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(ids); err != nil {
		return err
	}

	entries := make([]catalog.Entry, len(ids))
	for i, id := range ids {
		r, _ := s.find(id)
		e, ok := offeredEntry(r, entryID)
		if !ok {
			return &RowError{ID: id, Err: fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)}
		}
		entries[i] = e
	}
	for i, id := range ids {
		r, _ := s.find(id)
		s.assign(r, entries[i])
	}
	s.touch()
	return nil
}

func offeredEntry(r *WorkingRow, entryID string) (catalog.Entry, bool) {
	for _, c := range r.Candidates {
		if c.ID == entryID {
			return c, true
		}
	}
	if r.MatchedEntry != nil && r.MatchedEntry.ID == entryID {
		return *r.MatchedEntry, true
	}
	return catalog.Entry{}, false
}

// assign sets a manually chosen entry on r. The caller holds the lock.
func (s *Session) assign(r *WorkingRow, entry catalog.Entry) {
	if r.IsArea() {
		return
	}
	computed := impact.Compute(r.Input(), &entry, true)
	id := entry.ID
	score := 1.0
	r.MatchedEntry = &entry
	r.MatchedEntryID = &id
	r.MatchedEntryName = entry.Name
	r.MatchScore = &score
	r.Density = copyPtr(entry.Density)
	r.MassKg = computed.MassKg
	r.GWP = computed.GWP
	r.Burden = computed.Burden
	r.Energy = computed.Energy
	r.FetchError = false
	r.Overridden = true
	r.Revision = s.nextRevision()
}

// ChangeUnit switches a row's unit and re-resolves it through the lookup.
//
// The session lock is released during the lookup. If the row is mutated or
// deleted meanwhile the result is dropped and ErrStaleResult or
// ErrRowNotFound is returned. On lookup failure the row keeps its previous
// unit and values and the error is returned. A row that stops being a volume
// row loses the rows derived from it.
func (s *Session) ChangeUnit(ctx context.Context, id RowID, unit impact.Unit) (WorkingRow, error) {
	log := logging.FromContext(ctx)
	if !unit.Valid() {
		return WorkingRow{}, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, impact.ErrInvalidUnit, unit)
	}

	s.mu.Lock()
	r, ok := s.find(id)
	if !ok {
		s.mu.Unlock()
		return WorkingRow{}, &RowError{ID: id, Err: ErrRowNotFound}
	}
	rev := s.nextRevision()
	r.Revision = rev
	item := r.Item
	item.Unit = unit
	s.mu.Unlock()

	results, err := s.lookup.Lookup(ctx, []inventory.Item{item})
	if err == nil && len(results) != 1 {
		err = fmt.Errorf("unit change: expected 1 lookup result, got %d", len(results))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok = s.find(id)
	if !ok {
		return WorkingRow{}, &RowError{ID: id, Err: ErrRowNotFound}
	}
	if r.Revision != rev {
		log.Debug().
			Str("component", "engine").
			Str("operation", "change_unit").
			Str("row_id", string(id)).
			Uint64("revision", rev).
			Uint64("current_revision", r.Revision).
			Msg("discarding stale unit change result")
		return r.clone(), &RowError{ID: id, Err: ErrStaleResult}
	}
	if err != nil {
		log.Warn().
			Str("component", "engine").
			Str("operation", "change_unit").
			Str("row_id", string(id)).
			Err(err).
			Msg("unit change lookup failed, row unchanged")
		return r.clone(), fmt.Errorf("changing unit of row %s: %w", id, err)
	}

	r.Unit = unit
	applyResult(r, results[0])
	r.Revision = s.nextRevision()
	if unit != impact.UnitM3 {
		if derived := s.derivedIDs(id); len(derived) > 0 {
			s.removeLocked(derived)
			log.Debug().
				Str("component", "engine").
				Str("operation", "change_unit").
				Str("row_id", string(id)).
				Int("removed_count", len(derived)).
				Msg("removed rows derived from the former volume")
		}
	}
	s.inferAreas()
	s.touch()
	return r.clone(), nil
}

// Delete removes the named rows and their original records. Rows derived
// from a deleted row are removed with it. Returns the ids actually removed,
// in working order. If any id is unknown nothing is removed.
func (s *Session) Delete(ids []RowID) ([]RowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(ids); err != nil {
		return nil, err
	}

	removed := s.removeLocked(ids)
	s.inferAreas()
	s.touch()
	return removed, nil
}

// removeLocked removes ids and every row derived from them, directly or
// through other derived rows. s.mu must be held.
func (s *Session) removeLocked(ids []RowID) []RowID {
	doomed := idSet(ids)
	for changed := true; changed; {
		changed = false
		for _, r := range s.rows {
			if r.DerivedFrom != nil && doomed[*r.DerivedFrom] && !doomed[r.ID] {
				doomed[r.ID] = true
				changed = true
			}
		}
	}

	removed := make([]RowID, 0, len(doomed))
	kept := s.rows[:0]
	for _, r := range s.rows {
		if doomed[r.ID] {
			removed = append(removed, r.ID)
			delete(s.records, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	clear(s.rows[len(kept):])
	s.rows = kept
	return removed
}

// derivedIDs returns the ids of rows derived directly from parent.
func (s *Session) derivedIDs(parent RowID) []RowID {
	var out []RowID
	for _, r := range s.rows {
		if r.DerivedFrom != nil && *r.DerivedFrom == parent {
			out = append(out, r.ID)
		}
	}
	return out
}

// AssignArea sets an explicit per-area denominator on the named rows. A
// non-positive area clears the assignment and restores the area inferred
// from the element's area rows.
func (s *Session) AssignArea(ids []RowID, area float64) error {
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return fmt.Errorf("%w: area %v", ErrInvalidArgument, area)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIDs(ids); err != nil {
		return err
	}
	for _, id := range ids {
		r, _ := s.find(id)
		if area > 0 {
			a := area
			r.Area = &a
			r.areaAssigned = true
		} else {
			r.areaAssigned = false
		}
		r.Revision = s.nextRevision()
	}
	s.inferAreas()
	s.touch()
	return nil
}

// ToggleArea flips the per-area display of a row and returns the new state.
// Stored values are never changed.
func (s *Session) ToggleArea(id RowID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.find(id)
	if !ok {
		return false, &RowError{ID: id, Err: ErrRowNotFound}
	}
	r.PerArea = !r.PerArea
	s.touch()
	return r.PerArea, nil
}
