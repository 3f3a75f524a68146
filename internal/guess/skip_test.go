package guess

import (
	"reflect"
	"testing"
)

// TestGuessSkipHeaderLines exercises the ragged-prefix search over per-record
// column counts.
func TestGuessSkipHeaderLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		counts []int
		want   int
	}{
		{
			name:   "uniform body skips nothing",
			counts: []int{3, 3, 3, 3, 3},
			want:   0,
		},
		{
			name:   "two banner rows before a wider body",
			counts: []int{1, 1, 3, 3, 3, 3},
			want:   2,
		},
		{
			name:   "single banner row",
			counts: []int{1, 4, 4, 4},
			want:   1,
		},
		{
			name:   "narrowing early rows never count as banner",
			counts: []int{5, 3, 3, 3},
			want:   0,
		},
		{
			name:   "single record",
			counts: []int{3},
			want:   0,
		},
		{
			name:   "empty",
			counts: nil,
			want:   0,
		},
		{
			name: "prefix search is bounded",
			// Counts keep growing past the search limit, so no position
			// within it ever looks stable.
			counts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 3, 3, 3},
			want:   0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := guessSkipHeaderLines(tc.counts); got != tc.want {
				t.Errorf("guessSkipHeaderLines(%v) = %d, want %d", tc.counts, got, tc.want)
			}
		})
	}
}

// TestGuessCommentLineMarker covers marker selection, the two data-line
// exclusions, and the unchanged-sample path.
func TestGuessCommentLineMarker(t *testing.T) {
	t.Parallel()

	markers := DefaultCandidates().CommentMarkers

	t.Run("hash marker filtered out", func(t *testing.T) {
		t.Parallel()
		lines := []string{"x,y", "1,2", "# midfile note", "3,4"}
		marker, kept := guessCommentLineMarker(lines, ',', '"', "", markers)
		if marker != "#" {
			t.Fatalf("marker = %q, want %q", marker, "#")
		}
		want := []string{"x,y", "1,2", "3,4"}
		if !reflect.DeepEqual(kept, want) {
			t.Errorf("kept = %v, want %v", kept, want)
		}
	})

	t.Run("double slash beats hash on count", func(t *testing.T) {
		t.Parallel()
		lines := []string{"// one", "// two", "# lone", "a,b"}
		marker, kept := guessCommentLineMarker(lines, ',', '"', "", markers)
		if marker != "//" {
			t.Fatalf("marker = %q, want %q", marker, "//")
		}
		want := []string{"# lone", "a,b"}
		if !reflect.DeepEqual(kept, want) {
			t.Errorf("kept = %v, want %v", kept, want)
		}
	})

	t.Run("quoted line is data, not comment", func(t *testing.T) {
		t.Parallel()
		lines := []string{`"# not a comment",x`, "# real", "a,b"}
		marker, kept := guessCommentLineMarker(lines, ',', '"', "", markers)
		if marker != "#" {
			t.Fatalf("marker = %q, want %q", marker, "#")
		}
		want := []string{`"# not a comment",x`, "a,b"}
		if !reflect.DeepEqual(kept, want) {
			t.Errorf("kept = %v, want %v", kept, want)
		}
	})

	t.Run("null string field is data, not comment", func(t *testing.T) {
		t.Parallel()
		// #N/A starts with the hash but stands as a whole null field.
		lines := []string{"#N/A,1", "# real", "# another", "a,b"}
		marker, kept := guessCommentLineMarker(lines, ',', '"', "#N/A", markers)
		if marker != "#" {
			t.Fatalf("marker = %q, want %q", marker, "#")
		}
		want := []string{"#N/A,1", "a,b"}
		if !reflect.DeepEqual(kept, want) {
			t.Errorf("kept = %v, want %v", kept, want)
		}
	})

	t.Run("no marker leaves sample untouched", func(t *testing.T) {
		t.Parallel()
		lines := []string{"a,b", "c,d"}
		marker, kept := guessCommentLineMarker(lines, ',', '"', "", markers)
		if marker != "" {
			t.Fatalf("marker = %q, want empty", marker)
		}
		if !reflect.DeepEqual(kept, lines) {
			t.Errorf("kept = %v, want %v", kept, lines)
		}
	})
}

// TestFilterCommentLines covers the override path, which filters without
// re-guessing.
func TestFilterCommentLines(t *testing.T) {
	t.Parallel()

	lines := []string{"; note", "a,b", "; more"}
	got := filterCommentLines(lines, ";", ',', '"', "")
	want := []string{"a,b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filterCommentLines() = %v, want %v", got, want)
	}

	if got := filterCommentLines(lines, "", ',', '"', ""); !reflect.DeepEqual(got, lines) {
		t.Errorf("empty marker should leave lines untouched, got %v", got)
	}
}
