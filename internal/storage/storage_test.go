package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"csvguess/internal/schema"
)

type stubRepo struct{}

func (stubRepo) Close() {}
func (stubRepo) EnsureTable(context.Context, string, schema.Schema) error {
	return nil
}
func (stubRepo) InsertRows(context.Context, string, schema.Schema, [][]*string) (int64, error) {
	return 0, nil
}

// TestRegistry covers factory lookup, the unknown-kind error, and panic on
// duplicate registration.
func TestRegistry(t *testing.T) {
	wantErr := errors.New("factory ran")
	Register("stub-kind", func(context.Context, Config) (Repository, error) {
		return stubRepo{}, wantErr
	})

	_, err := New(context.Background(), Config{Kind: "stub-kind", DSN: "x"})
	if !errors.Is(err, wantErr) {
		t.Errorf("New() err = %v, want factory error", err)
	}

	if _, err := New(context.Background(), Config{Kind: "nope"}); err == nil {
		t.Error("New(unknown kind) err = nil")
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("New(empty kind) err = nil")
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("stub-kind", func(context.Context, Config) (Repository, error) {
		return stubRepo{}, nil
	})
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Transaction ID", "transaction_id"},
		{"  price (EUR)  ", "price_eur"},
		{"a--b..c", "a_b_c"},
		{"2024 totals", "c_2024_totals"},
		{"___", "col"},
		{"", "col"},
		{"already_fine", "already_fine"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestRowArgs covers every type conversion, NULL handling, padding, and
// parse failures.
func TestRowArgs(t *testing.T) {
	t.Parallel()

	cols := schema.Schema{
		{Name: "n", Type: schema.ColumnType{Kind: schema.TypeLong}},
		{Name: "x", Type: schema.ColumnType{Kind: schema.TypeDouble}},
		{Name: "ok", Type: schema.ColumnType{Kind: schema.TypeBoolean}},
		{Name: "day", Type: schema.ColumnType{Kind: schema.TypeTimestamp, Format: "2006-01-02"}},
		{Name: "s", Type: schema.ColumnType{Kind: schema.TypeString}},
	}
	ptr := func(s string) *string { return &s }

	got, err := RowArgs(cols, []*string{ptr("42"), ptr("2.5"), ptr("yes"), ptr("2024-01-02"), nil})
	if err != nil {
		t.Fatalf("RowArgs() error: %v", err)
	}
	want := []any{
		int64(42),
		2.5,
		true,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RowArgs() = %#v, want %#v", got, want)
	}

	// Short rows pad with NULLs.
	got, err = RowArgs(cols, []*string{ptr("1")})
	if err != nil {
		t.Fatalf("RowArgs(short) error: %v", err)
	}
	if len(got) != len(cols) || got[1] != nil || got[4] != nil {
		t.Errorf("RowArgs(short) = %#v", got)
	}

	if _, err := RowArgs(cols[:1], []*string{ptr("not a number")}); err == nil {
		t.Error("RowArgs(bad long) err = nil")
	}
	if _, err := RowArgs(cols[2:3], []*string{ptr("maybe")}); err == nil {
		t.Error("RowArgs(bad bool) err = nil")
	}
	if _, err := RowArgs(cols[3:4], []*string{ptr("02.01.2024")}); err == nil {
		t.Error("RowArgs(bad timestamp) err = nil")
	}
}
