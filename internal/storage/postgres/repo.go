package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"csvguess/internal/schema"
	"csvguess/internal/storage"
)

// Repo implements storage.Repository for Postgres on a pgx connection pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed Repo.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureTable creates the table when missing.
func (r *Repo) EnsureTable(ctx context.Context, table string, columns schema.Schema) error {
	if len(columns) == 0 {
		return fmt.Errorf("postgres: ensure table %s: no columns", table)
	}
	if _, err := r.pool.Exec(ctx, buildCreateSQL(table, columns)); err != nil {
		return fmt.Errorf("postgres: ensure table %s: %w", table, err)
	}
	return nil
}

// InsertRows performs one bulk INSERT for all rows.
func (r *Repo) InsertRows(ctx context.Context, table string, columns schema.Schema, rows [][]*string) (int64, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return 0, nil
	}
	sql, args, err := buildInsertSQL(table, columns, rows)
	if err != nil {
		return 0, err
	}
	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert into %s: %w", table, err)
	}
	return cmd.RowsAffected(), nil
}

// buildCreateSQL and buildInsertSQL are pure and deterministic so placeholder
// numbering and type mapping are unit-testable without a database.

func buildCreateSQL(table string, columns schema.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(pgType(c.Type))
	}
	b.WriteString(");")
	return b.String()
}

func buildInsertSQL(table string, columns schema.Schema, rows [][]*string) (string, []any, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		rowArgs, err := storage.RowArgs(columns, row)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
		}
		b.WriteString(")")
		args = append(args, rowArgs...)
	}
	b.WriteString(";")
	return b.String(), args, nil
}

func pgType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeLong:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
