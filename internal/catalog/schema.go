package catalog

import (
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is written by catalog import and assumed for files
// that do not declare a version.
const CurrentSchemaVersion = "1.0.0"

// supportedSchemaRange is the semver constraint snapshots must satisfy.
const supportedSchemaRange = ">= 1.0.0, < 2.0.0"

// CheckSchemaVersion reports whether version falls in the supported range.
// An empty version is treated as CurrentSchemaVersion.
func CheckSchemaVersion(version string) error {
	if version == "" {
		version = CurrentSchemaVersion
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedSchema, version, err)
	}

	constraint, err := semver.NewConstraint(supportedSchemaRange)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedSchema, v, supportedSchemaRange)
	}
	return nil
}

// Validate checks the snapshot's schema version and every entry.
func (s *Snapshot) Validate() error {
	if err := CheckSchemaVersion(s.SchemaVersion); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.Entries))
	for i, e := range s.Entries {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("%w: entry %d needs both id and name", ErrInvalidEntry, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.ID)
		}
		seen[e.ID] = struct{}{}

		for field, v := range map[string]*float64{
			"density":       e.Density,
			"gwp_per_kg":    e.GWPPerKg,
			"burden_per_kg": e.BurdenPerKg,
			"energy_per_kg": e.EnergyPerKg,
		} {
			if v == nil {
				continue
			}
			if math.IsNaN(*v) || math.IsInf(*v, 0) {
				return fmt.Errorf("%w: %s has non-finite %s", ErrInvalidEntry, e.ID, field)
			}
		}
		if e.Density != nil && *e.Density < 0 {
			return fmt.Errorf("%w: %s has negative density", ErrInvalidEntry, e.ID)
		}
	}
	return nil
}
