package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"csvguess/internal/schema"
	"csvguess/internal/storage"
)

// Repo implements storage.Repository for Microsoft SQL Server via
// database/sql and the "sqlserver" driver.
type Repo struct {
	db *sql.DB
}

// New opens a SQL Server connection and validates it with PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	_ = r.db.Close()
}

// EnsureTable creates the table when missing. SQL Server has no CREATE TABLE
// IF NOT EXISTS; the OBJECT_ID guard is the conventional equivalent.
func (r *Repo) EnsureTable(ctx context.Context, table string, columns schema.Schema) error {
	if len(columns) == 0 {
		return fmt.Errorf("mssql: ensure table %s: no columns", table)
	}
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table, columns)); err != nil {
		return fmt.Errorf("mssql: ensure table %s: %w", table, err)
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
		return 0, fmt.Errorf("mssql: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("mssql: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		args, err := storage.RowArgs(columns, row)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: %w", err)
	}
	return inserted, nil
}

func buildCreateSQL(table string, columns schema.Schema) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s %s", mssqlIdent(c.Name), mssqlType(c.Type)))
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s);",
		strings.ReplaceAll(table, "'", "''"),
		mssqlTableIdent(table),
		strings.Join(parts, ", "),
	)
}

func buildInsertSQL(table string, columns schema.Schema) string {
	names := make([]string, 0, len(columns))
	ph := make([]string, 0, len(columns))
	for i, c := range columns {
		names = append(names, mssqlIdent(c.Name))
		ph = append(ph, fmt.Sprintf("@p%d", i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		mssqlTableIdent(table), strings.Join(names, ", "), strings.Join(ph, ", "))
}

func mssqlType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeLong:
		return "BIGINT"
	case schema.TypeDouble:
		return "FLOAT"
	case schema.TypeBoolean:
		return "BIT"
	case schema.TypeTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent bracket-quotes schema-qualified names:
// "dbo.imports" -> [dbo].[imports].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
