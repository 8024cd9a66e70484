// Package inventory holds bill-of-quantities input rows and loads them from
// delimited text or JSON.
package inventory

import (
	"math"
	"strconv"
	"strings"

	"github.com/rshade/boqlca/internal/impact"
)

// Defaults for blank fields.
const (
	DefaultElement       = "Unnamed element"
	DefaultMaterialLabel = "Unnamed material"
)

// Item is one user-supplied inventory line.
type Item struct {
	Element       string      `json:"element"`
	MaterialLabel string      `json:"materialLabel"`
	Quantity      float64     `json:"quantity"`
	Unit          impact.Unit `json:"unit"`
}

// NewItem builds an Item, defaulting blank text fields and unknown units.
// Malformed input is never rejected.
func NewItem(element, label string, quantity float64, unit string) Item {
	return Item{
		Element:       orDefault(element, DefaultElement),
		MaterialLabel: orDefault(label, DefaultMaterialLabel),
		Quantity:      quantity,
		Unit:          UnitOrDefault(unit),
	}
}

// Normalize applies the same defaults as NewItem to an existing Item.
func (it Item) Normalize() Item {
	return NewItem(it.Element, it.MaterialLabel, it.Quantity, string(it.Unit))
}

// Input returns the fields the impact calculator consumes.
func (it Item) Input() impact.Input {
	return impact.Input{Quantity: it.Quantity, Unit: it.Unit}
}

// IsArea reports whether the item is an area row.
func (it Item) IsArea() bool { return it.Unit == impact.UnitM2 }

// UnitOrDefault parses s and falls back to kg when it is not a supported unit.
func UnitOrDefault(s string) impact.Unit {
	u, err := impact.ParseUnit(s)
	if err != nil {
		return impact.UnitKg
	}
	return u
}

// ParseQuantity parses a numeric cell. Decimal commas, apostrophe or space
// thousands separators, and mixed "1.234,5" / "1,234.5" forms are accepted;
// anything unparsable yields 0.
func ParseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "", "\u2019", "").Replace(s)
	if s == "" {
		return 0
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func orDefault(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}
