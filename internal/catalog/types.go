// Package catalog defines the reference material catalog consumed by the
// matcher and the providers that supply snapshots of it.
//
// A catalog is owned by an external source (a YAML/JSON file, a SQLite
// database, or a Postgres table). The core never mutates it: every lookup
// takes one Snapshot and treats it as shared read-only data.
package catalog

import (
	"context"
	"strings"
	"time"
)

// Entry is one reference material with its density and per-kilogram impact
// coefficients. Absent coefficients are treated as zero.
type Entry struct {
	// ID is the catalog's identifier for the material.
	ID string `json:"id" yaml:"id"`

	// Name is the display name used for matching.
	Name string `json:"name" yaml:"name"`

	// Density is in kg/m³; nil when the catalog does not know it.
	Density *float64 `json:"density,omitempty" yaml:"density,omitempty"`

	// GWPPerKg is the global-warming potential in kg CO2-eq per kg.
	GWPPerKg *float64 `json:"gwp_per_kg,omitempty" yaml:"gwp_per_kg,omitempty"`

	// BurdenPerKg is the aggregate environmental burden score per kg.
	BurdenPerKg *float64 `json:"burden_per_kg,omitempty" yaml:"burden_per_kg,omitempty"`

	// EnergyPerKg is the non-renewable primary energy in MJ per kg.
	EnergyPerKg *float64 `json:"energy_per_kg,omitempty" yaml:"energy_per_kg,omitempty"`
}

// DensityValue returns the density or 0 when absent.
func (e Entry) DensityValue() float64 { return valueOrZero(e.Density) }

// GWP returns the GWP coefficient or 0 when absent.
func (e Entry) GWP() float64 { return valueOrZero(e.GWPPerKg) }

// Burden returns the burden coefficient or 0 when absent.
func (e Entry) Burden() float64 { return valueOrZero(e.BurdenPerKg) }

// Energy returns the energy coefficient or 0 when absent.
func (e Entry) Energy() float64 { return valueOrZero(e.EnergyPerKg) }

// HasDensity reports whether the entry carries a positive density.
func (e Entry) HasDensity() bool { return e.Density != nil && *e.Density > 0 }

// NormalizedName is the lowercased, trimmed name used for comparisons.
func (e Entry) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(e.Name))
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Float returns a pointer to v, for building entries in code and tests.
func Float(v float64) *float64 { return &v }

// Snapshot is an immutable view of the catalog taken for one request.
type Snapshot struct {
	SchemaVersion string    `json:"schema_version" yaml:"schema_version"`
	Source        string    `json:"source" yaml:"source"`
	FetchedAt     time.Time `json:"fetched_at" yaml:"-"`
	Entries       []Entry   `json:"entries" yaml:"entries"`
}

// ByID returns the entry with the given id.
func (s *Snapshot) ByID(id string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries, tolerating a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Provider supplies catalog snapshots.
type Provider interface {
	// Name identifies the provider and its source, e.g. "sqlite:/data/kbob.db".
	Name() string

	// Snapshot returns the current catalog contents.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// StaticProvider serves a fixed list of entries. It is used by tests and by
// callers that already hold a snapshot in memory.
type StaticProvider struct {
	snapshot Snapshot
}

// NewStaticProvider returns a provider that always serves entries.
func NewStaticProvider(entries ...Entry) *StaticProvider {
	return &StaticProvider{snapshot: Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		Source:        "static",
		Entries:       entries,
	}}
}

// Name implements Provider.
func (p *StaticProvider) Name() string { return "static" }

// Snapshot implements Provider. The returned entries slice is a copy.
func (p *StaticProvider) Snapshot(_ context.Context) (*Snapshot, error) {
	snap := p.snapshot
	snap.Entries = append([]Entry(nil), p.snapshot.Entries...)
	snap.FetchedAt = time.Now()
	return &snap, nil
}
