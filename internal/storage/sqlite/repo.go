package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"csvguess/internal/schema"
	"csvguess/internal/storage"
)

// Repo implements storage.Repository for SQLite via the pure-Go driver.
// DSNs are file paths or URIs ("data.db", "file:data.db?mode=rwc",
// ":memory:").
type Repo struct {
	db *sql.DB
}

// New opens (and creates if needed) the SQLite database at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	_ = r.db.Close()
}

// EnsureTable creates the table when missing.
func (r *Repo) EnsureTable(ctx context.Context, table string, columns schema.Schema) error {
	if len(columns) == 0 {
		return fmt.Errorf("sqlite: ensure table %s: no columns", table)
	}
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table, columns)); err != nil {
		return fmt.Errorf("sqlite: ensure table %s: %w", table, err)
	}
	return nil
}

// InsertRows inserts all rows inside one transaction with a single prepared
// statement.
func (r *Repo) InsertRows(ctx context.Context, table string, columns schema.Schema, rows [][]*string) (int64, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		args, err := storage.RowArgs(columns, row)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, adaptArgs(args)...); err != nil {
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: %w", err)
	}
	return inserted, nil
}

// adaptArgs maps native values onto SQLite storage classes: booleans become
// 0/1 integers, timestamps RFC 3339 text.
func adaptArgs(args []any) []any {
	for i, a := range args {
		switch v := a.(type) {
		case bool:
			if v {
				args[i] = int64(1)
			} else {
				args[i] = int64(0)
			}
		case time.Time:
			args[i] = v.Format(time.RFC3339)
		}
	}
	return args
}

func buildCreateSQL(table string, columns schema.Schema) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s %s", sqlIdent(c.Name), sqliteType(c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", sqlIdent(table), strings.Join(parts, ", "))
}

func buildInsertSQL(table string, columns schema.Schema) string {
	names := make([]string, 0, len(columns))
	ph := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, sqlIdent(c.Name))
		ph = append(ph, "?")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		sqlIdent(table), strings.Join(names, ", "), strings.Join(ph, ", "))
}

func sqliteType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeLong, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeDouble:
		return "REAL"
	default:
		// timestamps are stored as RFC 3339 text
		return "TEXT"
	}
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
