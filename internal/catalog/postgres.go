package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rshade/boqlca/internal/logging"
)

// PostgresProvider reads the catalog from a Postgres table with the same
// columns WriteSQLite produces.
type PostgresProvider struct {
	pool  *pgxpool.Pool
	dsn   string
	table string
}

// NewPostgresProvider connects a pool to dsn. The connection is verified
// lazily on the first Snapshot call.
func NewPostgresProvider(ctx context.Context, dsn, table string) (*PostgresProvider, error) {
	if dsn == "" {
		return nil, errors.New("postgres catalog DSN cannot be empty")
	}
	t, err := checkTableName(table)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", ErrUnavailable, err)
	}

	return &PostgresProvider{pool: pool, dsn: redactDSN(cfg), table: t}, nil
}

// Name implements Provider. Credentials are never part of the name.
func (p *PostgresProvider) Name() string { return "postgres:" + p.dsn + "#" + p.table }

// Close releases the connection pool.
func (p *PostgresProvider) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Snapshot implements Provider.
func (p *PostgresProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := p.pool.Query(ctx, selectEntriesQuery(p.table))
	if err != nil {
		return nil, fmt.Errorf("%w: select entries: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	entries, err := scanPgx(rows)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SchemaVersion: CurrentSchemaVersion,
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
		Str("operation", "postgres_snapshot").
		Int("entry_count", len(entries)).
		Msg("catalog table loaded")

	return snap, nil
}

func scanPgx(rows pgx.Rows) ([]Entry, error) {
	return scanEntries(rows)
}

func redactDSN(cfg *pgxpool.Config) string {
	cc := cfg.ConnConfig
	return fmt.Sprintf("%s:%d/%s", cc.Host, cc.Port, cc.Database)
}
