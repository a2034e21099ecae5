package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// DefaultTable is the measurement table name in SQLite and PostgreSQL.
const DefaultTable = "lemon_measurements"

// sqliteTimestampLayout matches what pandas.to_sql stores for datetimes.
const sqliteTimestampLayout = "2006-01-02 15:04:05"

// SQLiteSource reads measurements from a table in a SQLite database file.
type SQLiteSource struct {
	Path  string
	Table string
}

// NewSQLite returns a SQLiteSource; an empty table means DefaultTable.
func NewSQLite(path, table string) *SQLiteSource {
	if table == "" {
		table = DefaultTable
	}
	return &SQLiteSource{Path: path, Table: table}
}

// Name returns "sqlite:<path>".
func (s *SQLiteSource) Name() string { return "sqlite:" + s.Path }

// Load reads every row of the table. An empty Path or a missing database
// file is reported as ErrUnavailable; the file is never created.
func (s *SQLiteSource) Load(ctx context.Context) ([]types.RawMeasurement, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("%w: sqlite path not configured", ErrUnavailable)
	}
	if err := validTable(s.Table); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", s.Path, err)
	}
	defer db.Close()

	recs, err := queryAll(ctx, db, "SELECT * FROM "+s.Table)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %q: %w", s.Path, err)
	}
	return recs, nil
}

// Save replaces the table with recs, creating the database file if needed.
// Used by the generator to produce a SQLite data set.
func (s *SQLiteSource) Save(ctx context.Context, recs []types.RawMeasurement) error {
	if err := validTable(s.Table); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite: open %q: %w", s.Path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		slog.Warn("sqlite: failed to set WAL mode", "path", s.Path, "err", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.Table); err != nil {
		return fmt.Errorf("sqlite: drop %s: %w", s.Table, err)
	}
	create := fmt.Sprintf(`
		CREATE TABLE %s (
			timestamp TEXT NOT NULL,
			lemon_id INTEGER NOT NULL,
			diameter_cm REAL NOT NULL,
			confidence REAL NOT NULL
		);`, s.Table)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", s.Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (timestamp, lemon_id, diameter_cm, confidence) VALUES (?, ?, ?, ?)", s.Table))
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.Timestamp.Format(sqliteTimestampLayout), r.EntityID, r.Diameter, r.Confidence,
		); err != nil {
			return fmt.Errorf("sqlite: insert lemon %d at %s: %w", r.EntityID, r.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// queryAll runs query and maps every row through the measurement columns.
func queryAll(ctx context.Context, db *sql.DB, query string) ([]types.RawMeasurement, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	idx, err := resolveColumns(cols)
	if err != nil {
		return nil, err
	}

	out := []types.RawMeasurement{}
	row := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range row {
		ptrs[i] = &row[i]
	}
	for n := 1; rows.Next(); n++ {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("row %d: scan: %w", n, err)
		}
		rec, err := idx.record(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
