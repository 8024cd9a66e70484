package greenops

import "fmt"

// EquivalencyType is a category of carbon equivalency.
type EquivalencyType int

const (
	// EquivalencyKmDriven is distance driven in an average passenger car.
	EquivalencyKmDriven EquivalencyType = iota

	// EquivalencyTreeSeedlings is tree seedlings grown for ten years.
	EquivalencyTreeSeedlings

	// EquivalencyHomeDays is days of average household electricity.
	EquivalencyHomeDays
)

// String returns the type name.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyKmDriven:
		return "KmDriven"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	case EquivalencyHomeDays:
		return "HomeDays"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// MarshalText encodes the type by name.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (e *EquivalencyType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "KmDriven":
		*e = EquivalencyKmDriven
	case "TreeSeedlings":
		*e = EquivalencyTreeSeedlings
	case "HomeDays":
		*e = EquivalencyHomeDays
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEquivalency, text)
	}
	return nil
}

// Equivalency is one calculated comparison.
type Equivalency struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// Summary holds the equivalencies of a GWP total.
type Summary struct {
	// GWPKg is the total in kg CO2-eq.
	GWPKg float64 `json:"gwp_kg"`

	// Equivalencies are ordered km driven, seedlings, home days.
	Equivalencies []Equivalency `json:"equivalencies,omitempty"`

	// DisplayText is the sentence shown under the CLI totals, e.g.
	// "Equivalent to driving ~6,209 km, the carbon absorbed by ~12 tree
	// seedlings in ten years or ~40 days of household electricity".
	DisplayText string `json:"display_text,omitempty"`

	// CompactText is the short form, e.g. "(≈ 6,209 km, 12 seedlings)".
	CompactText string `json:"compact_text,omitempty"`

	// IsEmpty is true when the total is below MinEquivalencyThresholdKg.
	IsEmpty bool `json:"is_empty"`
}
