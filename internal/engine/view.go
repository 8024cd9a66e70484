package engine

import "github.com/rshade/boqlca/internal/impact"

type groupKey struct {
	element string
	label   string
}

// Groups aggregates rows by (element, material label) in order of first
// appearance. Sums are computed on every call from the live rows.
func (s *Session) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []Group
	index := make(map[groupKey]int)
	for _, r := range s.rows {
		k := groupKey{element: r.Element, label: r.MaterialLabel}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Element: r.Element, MaterialLabel: r.MaterialLabel})
		}
		g := &groups[i]
		g.Quantity += r.Quantity
		g.MassKg += r.MassKg
		g.GWP += r.GWP
		g.Burden += r.Burden
		g.Energy += r.Energy
		g.RowIDs = append(g.RowIDs, r.ID)
	}
	return groups
}

// Display returns the values shown for a row: the stored figures, or those
// divided by the row's area when its per-area toggle is on and it has a
// positive area.
func (s *Session) Display(id RowID) (Display, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.find(id)
	if !ok {
		return Display{}, &RowError{ID: id, Err: ErrRowNotFound}
	}
	return display(r), nil
}

// Displays returns Display for every row in working order.
func (s *Session) Displays() []Display {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Display, len(s.rows))
	for i, r := range s.rows {
		out[i] = display(r)
	}
	return out
}

func display(r *WorkingRow) Display {
	v := r.Impact()
	perArea := r.PerArea && r.Area != nil && *r.Area > 0
	if perArea {
		v = v.PerArea(*r.Area)
	}
	return Display{
		RowID:   r.ID,
		PerArea: perArea,
		MassKg:  v.MassKg,
		GWP:     v.GWP,
		Burden:  v.Burden,
		Energy:  v.Energy,
	}
}

// Totals sums the stored mass and impacts of all rows.
func (s *Session) Totals() impact.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t impact.Result
	for _, r := range s.rows {
		t = t.Add(r.Impact())
	}
	return t
}
