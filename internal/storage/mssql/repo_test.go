package mssql

import (
	"testing"

	"csvguess/internal/schema"
)

func col(name, kind string) schema.Column {
	return schema.Column{Name: name, Type: schema.ColumnType{Kind: kind}}
}

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	columns := schema.Schema{
		col("id", schema.TypeLong),
		col("price", schema.TypeDouble),
		col("active", schema.TypeBoolean),
		{Name: "seen_at", Type: schema.ColumnType{Kind: schema.TypeTimestamp, Format: "2006-01-02"}},
		col("note", schema.TypeString),
	}

	got := buildCreateSQL("dbo.imports", columns)
	want := `IF OBJECT_ID(N'dbo.imports', N'U') IS NULL CREATE TABLE [dbo].[imports] ([id] BIGINT, [price] FLOAT, [active] BIT, [seen_at] DATETIME2, [note] NVARCHAR(MAX));`
	if got != want {
		t.Errorf("buildCreateSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	columns := schema.Schema{col("a", schema.TypeLong), col("b", schema.TypeString), col("c", schema.TypeDouble)}
	got := buildInsertSQL("imports", columns)
	want := `INSERT INTO [imports] ([a], [b], [c]) VALUES (@p1, @p2, @p3);`
	if got != want {
		t.Errorf("buildInsertSQL() = %s, want %s", got, want)
	}
}

func TestIdentQuoting(t *testing.T) {
	t.Parallel()

	if got := mssqlIdent("odd]name"); got != "[odd]]name]" {
		t.Errorf("mssqlIdent() = %s", got)
	}
	if got := mssqlTableIdent("staging . raw_rows"); got != "[staging].[raw_rows]" {
		t.Errorf("mssqlTableIdent() = %s", got)
	}
	if got := mssqlTableIdent("plain"); got != "[plain]" {
		t.Errorf("mssqlTableIdent(plain) = %s", got)
	}
}
