// Package impact converts a quantity and a matched catalog entry into mass
// and impact figures.
package impact

import (
	"fmt"
	"strings"

	"github.com/rshade/boqlca/internal/catalog"
)

// Unit is the unit of an inventory quantity.
type Unit string

// Supported units.
const (
	UnitKg Unit = "kg"
	UnitM3 Unit = "m3"
	UnitM2 Unit = "m2"
)

// ParseUnit accepts kg, m3, m³, m2 and m² in any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg":
		return UnitKg, nil
	case "m3", "m³":
		return UnitM3, nil
	case "m2", "m²":
		return UnitM2, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// String returns the canonical unit name.
func (u Unit) String() string { return string(u) }

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u == UnitKg || u == UnitM3 || u == UnitM2
}

// Input is the part of an inventory row that drives the computation.
type Input struct {
	Quantity float64
	Unit     Unit
}

// Result holds mass and impact totals for one row.
type Result struct {
	MassKg float64 `json:"mass_kg"`
	GWP    float64 `json:"gwp"`
	Burden float64 `json:"burden"`
	Energy float64 `json:"energy"`

	// Excluded marks area rows, which never carry impacts.
	Excluded bool `json:"excluded,omitempty"`
}

// Compute derives mass and impacts. Impacts are zero unless confident is
// true and entry is non-nil. Area rows return an excluded zero Result.
func Compute(in Input, entry *catalog.Entry, confident bool) Result {
	var r Result
	switch in.Unit {
	case UnitM2:
		r.Excluded = true
		return r
	case UnitM3:
		if entry != nil {
			r.MassKg = in.Quantity * entry.DensityValue()
		}
	default:
		r.MassKg = in.Quantity
	}

	if !confident || entry == nil {
		return r
	}
	r.GWP = r.MassKg * entry.GWP()
	r.Burden = r.MassKg * entry.Burden()
	r.Energy = r.MassKg * entry.Energy()
	return r
}

// Add returns the component-wise sum of r and o.
func (r Result) Add(o Result) Result {
	return Result{
		MassKg: r.MassKg + o.MassKg,
		GWP:    r.GWP + o.GWP,
		Burden: r.Burden + o.Burden,
		Energy: r.Energy + o.Energy,
	}
}

// PerArea divides every figure by area. A non-positive area returns r
// unchanged.
func (r Result) PerArea(area float64) Result {
	if area <= 0 {
		return r
	}
	return Result{
		MassKg:   r.MassKg / area,
		GWP:      r.GWP / area,
		Burden:   r.Burden / area,
		Energy:   r.Energy / area,
		Excluded: r.Excluded,
	}
}
