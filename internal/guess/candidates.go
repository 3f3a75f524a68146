// Package guess implements dialect and schema inference over a bounded
// sample of decoded text lines. A chain of statistical heuristics resolves
// the delimiter, quoting, escaping, null representation, comment markers and
// header skipping, feeding a dialect-aware tokenizer whose output drives
// schema typing and the final configuration fragment.
package guess

// Candidates holds the candidate sets each heuristic scores, in priority
// order (the first listed candidate wins ties, and the first delimiter/quote
// doubles as the fallback default). They are plain data so tests and callers
// can substitute alternate sets.
type Candidates struct {
	Delimiters     []rune
	Quotes         []rune
	Escapes        []rune
	NullStrings    []string
	CommentMarkers []string
}

// DefaultCandidates returns the standard candidate sets.
func DefaultCandidates() Candidates {
	return Candidates{
		Delimiters: []rune{',', '\t', '|', ';'},
		Quotes:     []rune{'"', '\''},
		Escapes:    []rune{'\\', '"'},
		// \N covers MySQL LOAD and Hive plain-text exports.
		NullStrings:    []string{"null", "NULL", "#N/A", `\N`},
		CommentMarkers: []string{"#", "//"},
	}
}

// Empirically tuned scoring constants. No derivation is documented for them;
// they are kept verbatim for behavioral compatibility and exposed here as
// the single place to tune.
const (
	// quoteWeightClean rewards a cleanly quoted field: start-or-delimiter,
	// quote, run without quotes, quote, end-or-delimiter.
	quoteWeightClean = 20
	// quoteWeightDelimited rewards the same span when its interior is free
	// of delimiters, the strongest RFC-style quoting signal.
	quoteWeightDelimited = 40
	// quoteScoreThreshold is the minimum average per-line quote score needed
	// to commit to a quoting character.
	quoteScoreThreshold = 10.0
	// delimiterWeightThreshold is the minimum weight (total/stddev) needed
	// to commit to a delimiter instead of assuming a single-column file.
	delimiterWeightThreshold = 1.0

	// maxSkipLines bounds how deep the ragged-prefix search looks.
	maxSkipLines = 10
	// skipDetectLines is how many consecutive records must stay at or under
	// the threshold column count to call the prefix ended.
	skipDetectLines = 10
)
