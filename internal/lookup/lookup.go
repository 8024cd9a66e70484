// Package lookup is the catalog lookup service: given inventory items it
// returns, in the same order, the matched entry, score, candidates and the
// computed mass and impacts for each item.
//
// A lookup call fails or succeeds as a whole. There are no partial results.
package lookup

import (
	"context"

	"github.com/rshade/boqlca/internal/catalog"
	"github.com/rshade/boqlca/internal/inventory"
)

// Lookup resolves a batch of items against one catalog snapshot.
type Lookup interface {
	Lookup(ctx context.Context, items []inventory.Item) ([]Result, error)
}

// Result is the per-item answer of a lookup.
type Result struct {
	MassKg  float64  `json:"mass_kg"`
	Density *float64 `json:"density"`
	GWP     float64  `json:"gwp"`
	Burden  float64  `json:"burden"`
	Energy  float64  `json:"energy"`

	// MatchedEntryName and MatchedEntry are nil unless the match is confident.
	MatchedEntryName *string        `json:"matchedEntryName"`
	MatchedEntry     *catalog.Entry `json:"matchedEntry"`

	// MatchScore is nil for area rows, which are never matched.
	MatchScore *float64 `json:"matchScore"`

	CandidateEntries []catalog.Entry `json:"candidateEntries"`

	// Excluded marks area rows.
	Excluded bool `json:"excluded,omitempty"`
}

// Confident reports whether the result carries a matched entry.
func (r Result) Confident() bool {
	return r.MatchedEntry != nil
}
