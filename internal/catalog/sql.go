package catalog

import (
	"fmt"
	"regexp"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "materials"

// tableNamePattern restricts configured table names to plain identifiers,
// since they are interpolated into queries.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// rowScanner is the subset of *sql.Rows and pgx.Rows used by scanEntries.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func checkTableName(table string) (string, error) {
	if table == "" {
		return DefaultTable, nil
	}
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("invalid catalog table name %q", table)
	}
	return table, nil
}

func selectEntriesQuery(table string) string {
	return fmt.Sprintf(
		`SELECT id, name, density, gwp_per_kg, burden_per_kg, energy_per_kg FROM %s ORDER BY position, id`,
		table)
}

func scanEntries(rows rowScanner) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Density, &e.GWPPerKg, &e.BurdenPerKg, &e.EnergyPerKg); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return entries, nil
}
