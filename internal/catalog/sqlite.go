package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/rshade/boqlca/internal/logging"
)

// SQLiteProvider reads the catalog from a SQLite database produced by
// WriteSQLite (or any database with the same table layout).
type SQLiteProvider struct {
	path  string
	table string
}

// NewSQLiteProvider returns a provider for the database at path.
func NewSQLiteProvider(path, table string) (*SQLiteProvider, error) {
	if path == "" {
		return nil, errors.New("sqlite catalog path cannot be empty")
	}
	t, err := checkTableName(table)
	if err != nil {
		return nil, err
	}
	return &SQLiteProvider{path: path, table: t}, nil
}

// Name implements Provider.
func (p *SQLiteProvider) Name() string { return "sqlite:" + p.path + "#" + p.table }

// Snapshot implements Provider.
func (p *SQLiteProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, p.path, err)
	}

	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrUnavailable, err)
	}
	defer func() { _ = db.Close() }()

	version, err := readSchemaVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectEntriesQuery(p.table))
	if err != nil {
		return nil, fmt.Errorf("%w: select entries: %w", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SchemaVersion: version,
		Source:        p.Name(),
		FetchedAt:     time.Now(),
		Entries:       entries,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "catalog").
		Str("operation", "sqlite_snapshot").
		Str("path", p.path).
		Int("entry_count", len(entries)).
		Msg("catalog database loaded")

	return snap, nil
}

// readSchemaVersion reads the version stored by WriteSQLite. Databases
// without a meta table are assumed to be current.
func readSchemaVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	err := db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE key = 'schema_version'`).Scan(&version)
	if err == nil {
		return version, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return CurrentSchemaVersion, nil
	}
	// Missing table surfaces as a generic error from the driver.
	var exists int
	probe := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'catalog_meta'`).Scan(&exists)
	if probe == nil && exists == 0 {
		return CurrentSchemaVersion, nil
	}
	return "", fmt.Errorf("%w: reading schema version: %w", ErrUnavailable, err)
}

// WriteSQLite replaces the catalog table in the database at path with the
// entries of snap, preserving their order.
func WriteSQLite(ctx context.Context, path, table string, snap *Snapshot) (retErr error) {
	t, err := checkTableName(table)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalog_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t),
		fmt.Sprintf(`CREATE TABLE %s (
			position INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			density REAL,
			gwp_per_kg REAL,
			burden_per_kg REAL,
			energy_per_kg REAL
		)`, t),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare schema: %w", err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (position, id, name, density, gwp_per_kg, burden_per_kg, energy_per_kg)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, t))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	for i, e := range snap.Entries {
		if _, err := insert.ExecContext(ctx, i, e.ID, e.Name,
			nullable(e.Density), nullable(e.GWPPerKg), nullable(e.BurdenPerKg), nullable(e.EnergyPerKg)); err != nil {
			return fmt.Errorf("insert %s: %w", e.ID, err)
		}
	}

	version := snap.SchemaVersion
	if version == "" {
		version = CurrentSchemaVersion
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, version); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	return tx.Commit()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
