package greenops

// Equivalency factors in kg CO2-eq per unit of activity. An equivalency is
// the carbon divided by the factor.
const (
	// KmDrivenFactor is kg CO2-eq per km in an average passenger car.
	KmDrivenFactor = 0.1193

	// TreeSeedlingFactor is kg CO2-eq absorbed by one urban tree seedling
	// grown for ten years.
	TreeSeedlingFactor = 60.0

	// HomeDayFactor is kg CO2-eq of one day of average household
	// electricity use.
	HomeDayFactor = 18.3
)

// Mass conversion factors to kilograms.
const (
	GramsToKg  = 0.001
	KgToKg     = 1.0
	TonsToKg   = 1000.0
	PoundsToKg = 0.453592
)

// Display thresholds.
const (
	// MinEquivalencyThresholdKg is the smallest total for which
	// equivalencies are reported.
	MinEquivalencyThresholdKg = 1.0

	// LargeNumberThreshold switches FormatLarge to "~X.X million".
	LargeNumberThreshold = 1_000_000

	// BillionThreshold switches FormatLarge to "~X.X billion".
	BillionThreshold = 1_000_000_000
)
