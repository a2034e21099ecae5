package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// PostgresSource reads measurements from a PostgreSQL table.
type PostgresSource struct {
	DSN   string
	Table string
}

// NewPostgres returns a PostgresSource; an empty table means DefaultTable.
func NewPostgres(dsn, table string) *PostgresSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{DSN: dsn, Table: table}
}

// Name returns "postgres:<table>". The DSN is left out since it may carry
// credentials.
func (s *PostgresSource) Name() string { return "postgres:" + s.Table }

// Load reads every row of the table. An empty DSN or an unreachable server is
// reported as ErrUnavailable.
func (s *PostgresSource) Load(ctx context.Context) ([]types.RawMeasurement, error) {
	if s.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn not configured", ErrUnavailable)
	}
	if err := validTable(s.Table); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	db, err := sql.Open("postgres", s.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: postgres ping: %s", ErrUnavailable, err)
	}

	recs, err := queryAll(ctx, db, "SELECT * FROM "+s.Table)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return recs, nil
}
