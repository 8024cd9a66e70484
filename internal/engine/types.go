package engine

import (
	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
)

// Labels shown in place of a matched entry name.
const (
	UnmatchedLabel  = "unmatched"
	FetchErrorLabel = "unmatched — fetch error"
)

// FetchErrorWarning is the banner raised when the catalog could not be
// reached during ingest.
const FetchErrorWarning = "catalog lookup failed: affected rows carry no impacts until a material is assigned manually"

// RowID is the stable identifier of a working row. It never changes and is
// never reused within a session.
type RowID string

// WorkingRow is an inventory item enriched with its match and impacts.
type WorkingRow struct {
	ID RowID `json:"id"`
	inventory.Item

	MatchedEntryID   *string        `json:"matchedEntryId"`
	MatchedEntryName string         `json:"matchedEntryName"`
	MatchedEntry     *catalog.Entry `json:"matchedEntry,omitempty"`
	MatchScore       *float64       `json:"matchScore"`

	MassKg float64 `json:"mass_kg"`
	GWP    float64 `json:"gwp"`
	Burden float64 `json:"burden"`
	Energy float64 `json:"energy"`

	Candidates []catalog.Entry `json:"candidateEntries"`
	Density    *float64        `json:"density"`

	// Area is the per-area denominator, inferred from area rows of the same
	// element unless assigned explicitly.
	Area    *float64 `json:"area,omitempty"`
	PerArea bool     `json:"perArea"`

	DerivedFrom *RowID `json:"derivedFromRowId,omitempty"`
	FetchError  bool   `json:"fetchError,omitempty"`
	Overridden  bool   `json:"overridden,omitempty"`

	// Revision changes on every mutation of the row.
	Revision uint64 `json:"revision"`

	areaAssigned bool
}

// Impact returns the stored mass and impact figures.
func (r *WorkingRow) Impact() impact.Result {
	return impact.Result{MassKg: r.MassKg, GWP: r.GWP, Burden: r.Burden, Energy: r.Energy, Excluded: r.IsArea()}
}

// Confident reports whether the row carries a matched entry.
func (r *WorkingRow) Confident() bool { return r.MatchedEntry != nil }

func (r *WorkingRow) clone() WorkingRow {
	c := *r
	c.Candidates = append([]catalog.Entry(nil), r.Candidates...)
	if r.MatchedEntry != nil {
		e := *r.MatchedEntry
		c.MatchedEntry = &e
	}
	c.MatchedEntryID = copyPtr(r.MatchedEntryID)
	c.MatchScore = copyPtr(r.MatchScore)
	c.Density = copyPtr(r.Density)
	c.Area = copyPtr(r.Area)
	c.DerivedFrom = copyPtr(r.DerivedFrom)
	return c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Group aggregates rows sharing (element, material label).
type Group struct {
	Element       string  `json:"element"`
	MaterialLabel string  `json:"materialLabel"`
	Quantity      float64 `json:"quantity"`
	MassKg        float64 `json:"mass_kg"`
	GWP           float64 `json:"gwp"`
	Burden        float64 `json:"burden"`
	Energy        float64 `json:"energy"`
	RowIDs        []RowID `json:"rowIds"`
}

// Display holds the values shown for a row, divided by its area when the
// per-area toggle is on.
type Display struct {
	RowID   RowID   `json:"rowId"`
	PerArea bool    `json:"perArea"`
	MassKg  float64 `json:"mass_kg"`
	GWP     float64 `json:"gwp"`
	Burden  float64 `json:"burden"`
	Energy  float64 `json:"energy"`
}

// RowRecord pairs a row with its original input record. Record is nil for
// derived rows.
type RowRecord struct {
	Row    WorkingRow
	Record *inventory.Record
}
