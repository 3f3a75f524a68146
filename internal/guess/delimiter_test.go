package guess

import "testing"

// TestGuessDelimiter exercises the total/uniformity scoring: the winning
// delimiter occurs often and with near-constant per-line counts.
func TestGuessDelimiter(t *testing.T) {
	t.Parallel()

	cands := DefaultCandidates().Delimiters

	cases := []struct {
		name  string
		lines []string
		want  rune
	}{
		{
			name:  "uniform commas",
			lines: []string{"a,b,c", "d,e,f", "g,h,i"},
			want:  ',',
		},
		{
			name:  "tabs",
			lines: []string{"a\tb\tc", "d\te\tf"},
			want:  '\t',
		},
		{
			name:  "semicolons beat sparse commas",
			lines: []string{"a,b;c;d;e", "f;g;h;i,j"},
			want:  ';',
		},
		{
			name:  "pipes beat commas on count",
			lines: []string{"a,b|c|d", "e,f|g|h"},
			want:  '|',
		},
		{
			name:  "no candidate present falls back to comma",
			lines: []string{"single column", "another line"},
			want:  ',',
		},
		{
			name:  "empty sample falls back to comma",
			lines: nil,
			want:  ',',
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := guessDelimiter(tc.lines, cands); got != tc.want {
				t.Errorf("guessDelimiter() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestGuessDelimiterPrefersUniform pins the tie-shaped case where a rarer
// but perfectly uniform candidate outweighs a frequent bursty one.
func TestGuessDelimiterPrefersUniform(t *testing.T) {
	t.Parallel()

	// Commas: one per line, uniform. Semicolons: many, but all on one line.
	lines := []string{
		"a,b",
		"c,d;;;;;;;;",
		"e,f",
		"g,h",
	}
	if got := guessDelimiter(lines, DefaultCandidates().Delimiters); got != ',' {
		t.Errorf("guessDelimiter() = %q, want ','", got)
	}
}
