package core

// loader.go copies a catalog table's rows into Postgres.
//
// A load replaces the target table's contents in one transaction:
//
//  1. Fetch the spreadsheet (holding a fetch slot)
//  2. Check that every catalog column exists in the target with a
//     compatible type
//  3. DELETE FROM the target
//  4. COPY the projected rows
//  5. Commit
//
// Any failure rolls back, so readers never see a half-loaded table.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

// DB is the database handle loads need. *pgxpool.Pool and *pgx.Conn satisfy it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LoadResult summarises one load.
type LoadResult struct {
	Table    string        `json:"table"`
	Target   string        `json:"target"`
	Rows     int64         `json:"rows"`
	Duration time.Duration `json:"-"`
}

// Load replaces the target table of a catalog table with the sheet's rows.
func (s *Service) Load(ctx context.Context, key string) (LoadResult, error) {
	t, err := s.Table(key)
	if err != nil {
		return LoadResult{}, err
	}
	if s.db == nil {
		return LoadResult{}, ErrNoDatabase
	}
	if !t.Loadable() {
		return LoadResult{}, fmt.Errorf("%w: %s", ErrNotLoadable, key)
	}

	start := s.now()
	logger := logging.WithFields(ctx, "table", key, "target", t.TargetTable)

	a := s.newAdapter(logger)
	if err := s.begin(ctx, a, t.Options()); err != nil {
		return LoadResult{}, err
	}
	defer a.EndScan()

	rows, err := s.copyInto(ctx, t, a)
	if err != nil {
		return LoadResult{}, err
	}

	res := LoadResult{
		Table:    key,
		Target:   t.TargetTable,
		Rows:     rows,
		Duration: s.now().Sub(start),
	}
	logger.Info("table loaded", "rows", res.Rows, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (s *Service) copyInto(ctx context.Context, t catalog.Table, a *sheets.Adapter) (int64, error) {
	ident := ParseIdentifier(t.TargetTable)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkTarget(ctx, tx, ident, t.Columns); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("clear %s: %w", t.TargetTable, err)
	}

	src := sheets.NewCopySource(a, t.Columns)
	n, err := tx.CopyFrom(ctx, ident, sheets.ColumnNames(t.Columns), src)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", t.TargetTable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// targetColumnsSQL lists the live columns of a table with their type OIDs.
const targetColumnsSQL = `
SELECT a.attname, a.atttypid
FROM pg_attribute a
WHERE a.attrelid = $1::regclass
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TargetColumns reads a table's columns from the system catalog.
func TargetColumns(ctx context.Context, q querier, ident pgx.Identifier) (map[string]sheets.ColumnType, error) {
	rows, err := q.Query(ctx, targetColumnsSQL, ident.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", ident.Sanitize(), err)
	}
	defer rows.Close()

	cols := make(map[string]sheets.ColumnType)
	for rows.Next() {
		var (
			name string
			oid  uint32
		)
		if err := rows.Scan(&name, &oid); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = sheets.ColumnTypeFromOID(oid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", ident.Sanitize(), err)
	}
	return cols, nil
}

func checkTarget(ctx context.Context, tx pgx.Tx, ident pgx.Identifier, cols []sheets.Column) error {
	target, err := TargetColumns(ctx, tx, ident)
	if err != nil {
		return err
	}

	var problems []string
	for _, c := range cols {
		got, ok := target[c.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing column %s", c.Name))
		case got.Kind != c.Type.Kind:
			problems = append(problems, fmt.Sprintf("column %s is %s, catalog says %s", c.Name, got, c.Type))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrTargetMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// ParseIdentifier splits "schema.table" into a quoted-safe identifier.
func ParseIdentifier(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return pgx.Identifier(parts)
}
