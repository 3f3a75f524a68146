package postgres

import (
	"reflect"
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

	got := buildCreateSQL("events", columns)
	want := `CREATE TABLE IF NOT EXISTS "events" ("id" BIGINT, "price" DOUBLE PRECISION, "active" BOOLEAN, "seen_at" TIMESTAMP, "note" TEXT);`
	if got != want {
		t.Errorf("buildCreateSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	columns := schema.Schema{col("id", schema.TypeLong), col("name", schema.TypeString)}
	ptr := func(s string) *string { return &s }
	rows := [][]*string{
		{ptr("1"), ptr("ada")},
		{ptr("2"), nil},
	}

	sql, args, err := buildInsertSQL("people", columns, rows)
	if err != nil {
		t.Fatalf("buildInsertSQL() error: %v", err)
	}

	wantSQL := `INSERT INTO "people" ("id", "name") VALUES ($1, $2), ($3, $4);`
	if sql != wantSQL {
		t.Errorf("sql = %s, want %s", sql, wantSQL)
	}
	wantArgs := []any{int64(1), "ada", int64(2), nil}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %#v, want %#v", args, wantArgs)
	}
}

func TestBuildInsertSQLBadValue(t *testing.T) {
	t.Parallel()

	columns := schema.Schema{col("id", schema.TypeLong)}
	bad := "x"
	if _, _, err := buildInsertSQL("t", columns, [][]*string{{&bad}}); err == nil {
		t.Error("buildInsertSQL(bad long) err = nil")
	}
}

func TestPgIdent(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`weird"name`); got != `"weird""name"` {
		t.Errorf("pgIdent() = %s", got)
	}
}
