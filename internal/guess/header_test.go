package guess

import (
	"testing"

	parsercsv "csvguess/internal/parser/csv"
)

func recordsOf(rows ...[]string) []parsercsv.Record {
	recs := make([]parsercsv.Record, len(rows))
	for i, row := range rows {
		rec := make(parsercsv.Record, len(row))
		for j := range row {
			v := row[j]
			rec[j] = parsercsv.Field{Value: &v}
		}
		recs[i] = rec
	}
	return recs
}

// TestGuessStringHeaderLine exercises the length-statistics half of header
// detection, where types alone cannot tell a header from the body.
func TestGuessStringHeaderLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		records []parsercsv.Record
		want    bool
	}{
		{
			name: "long header over short uniform codes",
			records: recordsOf(
				[]string{"transaction_id", "amount"},
				[]string{"1", "2.5"},
				[]string{"2", "3.5"},
				[]string{"3", "4.5"},
			),
			want: true,
		},
		{
			name: "uniform body lengths match the first row",
			records: recordsOf(
				[]string{"abc", "def"},
				[]string{"ghi", "jkl"},
				[]string{"mno", "pqr"},
			),
			want: false,
		},
		{
			name: "named column over empty body values",
			records: recordsOf(
				[]string{"id"},
				[]string{""},
				[]string{""},
			),
			want: true,
		},
		{
			name: "varying body lengths give no signal",
			records: recordsOf(
				[]string{"name"},
				[]string{"a"},
				[]string{"abcdefgh"},
				[]string{"abc"},
			),
			want: false,
		},
		{
			name:    "single record",
			records: recordsOf([]string{"a", "b"}),
			want:    false,
		},
		{
			name:    "empty",
			records: nil,
			want:    false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := guessStringHeaderLine(tc.records); got != tc.want {
				t.Errorf("guessStringHeaderLine() = %v, want %v", got, tc.want)
			}
		})
	}
}
