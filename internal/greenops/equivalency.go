package greenops

import (
	"fmt"
	"math"
)

// Summarize computes the equivalencies of a GWP total in kg CO2-eq.
//
// Totals below MinEquivalencyThresholdKg give an empty Summary without
// error. Negative totals return ErrNegativeValue and non-finite ones
// ErrCalculationOverflow.
func Summarize(gwpKg float64) (Summary, error) {
	if math.IsNaN(gwpKg) || math.IsInf(gwpKg, 0) {
		return Summary{IsEmpty: true}, ErrCalculationOverflow
	}
	if gwpKg < 0 {
		return Summary{IsEmpty: true}, ErrNegativeValue
	}
	if gwpKg < MinEquivalencyThresholdKg {
		return Summary{GWPKg: gwpKg, IsEmpty: true}, nil
	}

	km := gwpKg / KmDrivenFactor
	seedlings := gwpKg / TreeSeedlingFactor
	days := gwpKg / HomeDayFactor

	eqs := []Equivalency{
		{Type: EquivalencyKmDriven, Value: km, FormattedValue: formatEquivalencyValue(km), Label: "km driven"},
		{Type: EquivalencyTreeSeedlings, Value: seedlings, FormattedValue: formatEquivalencyValue(seedlings), Label: "tree seedlings grown for ten years"},
		{Type: EquivalencyHomeDays, Value: days, FormattedValue: formatEquivalencyValue(days), Label: "days of household electricity"},
	}

	return Summary{
		GWPKg:         gwpKg,
		Equivalencies: eqs,
		DisplayText: fmt.Sprintf(
			"Equivalent to driving ~%s km, the carbon absorbed by ~%s tree seedlings in ten years or ~%s days of household electricity",
			eqs[0].FormattedValue, eqs[1].FormattedValue, eqs[2].FormattedValue),
		CompactText: fmt.Sprintf("(≈ %s km, %s seedlings)", eqs[0].FormattedValue, eqs[1].FormattedValue),
	}, nil
}

func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
