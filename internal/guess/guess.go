package guess

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"csvguess/internal/config"
	"csvguess/internal/metrics"
	parsercsv "csvguess/internal/parser/csv"
	"csvguess/internal/schema"
)

// Guesser sequences the heuristics into a complete dialect and schema guess.
//
// A Guesser holds no per-run state: concurrent Guess calls over distinct
// samples are safe without coordination.
type Guesser struct {
	// Candidates are the heuristic candidate sets; zero value is unusable,
	// use New or fill in DefaultCandidates.
	Candidates Candidates

	// Metrics receives run counters and durations. Defaults to a no-op.
	Metrics metrics.Backend

	// Warn receives tokenizer diagnostics for dropped sample lines. May be
	// nil.
	Warn func(line int, err error)
}

// New returns a Guesser with the default candidate sets and no-op metrics.
func New() *Guesser {
	return &Guesser{
		Candidates: DefaultCandidates(),
		Metrics:    metrics.Nop{},
	}
}

// Guess infers the dialect and schema of the sample under the base
// configuration and returns a mergeable parser fragment.
//
// Stages run in order; any stage whose value is already present in the base
// parser configuration is skipped in favor of the override. Malformed
// overrides abort immediately, before any heuristic runs. A sample that
// yields no usable rows or columns degrades to an empty fragment, not an
// error: the caller is expected to fall back to explicit configuration.
//
// Guessing is deterministic: identical sample and base configuration produce
// an identical fragment.
func (g *Guesser) Guess(base config.Options, lines []string) (config.Diff, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		g.Metrics.IncCounter("guess_runs_total", 1, metrics.Labels{"outcome": outcome})
		g.Metrics.ObserveHistogram("guess_duration_seconds", time.Since(start).Seconds(), nil)
	}()

	diff := config.NewDiff()

	parserCfg := base.Nested("parser")
	if parserCfg.String("type", "csv") != "csv" {
		// Not our format; the guess is a no-op.
		outcome = "skipped"
		return diff, nil
	}

	if err := validateOverrides(parserCfg); err != nil {
		outcome = "error"
		return nil, err
	}

	parserGuessed := config.NewDiff()
	parserGuessed.MergeOptions(parserCfg)
	parserGuessed.Set("type", "csv")

	// Delimiter first: every later heuristic is delimiter-relative.
	var delim rune
	if parserCfg.Has("delimiter") {
		delim, _ = utf8.DecodeRuneInString(parserCfg.String("delimiter", ""))
	} else {
		delim = guessDelimiter(lines, g.Candidates.Delimiters)
	}
	parserGuessed.Set("delimiter", string(delim))

	if !parserGuessed.Has("quote") {
		if q := guessQuote(lines, delim, g.Candidates.Quotes); q != 0 {
			parserGuessed.Set("quote", string(q))
		} else {
			parserGuessed.Set("quote", nil)
		}
	}
	// An explicitly configured empty quote is obsolete syntax for the
	// default double quote.
	if s, ok := parserGuessed.Get("quote").(string); ok && s == "" {
		parserGuessed.Set("quote", `"`)
	}

	if !parserGuessed.Has("escape") {
		if quote := charOf(parserGuessed, "quote"); quote != 0 {
			if e := guessEscape(lines, delim, quote, g.Candidates.Escapes); e != 0 {
				parserGuessed.Set("escape", string(e))
			} else {
				parserGuessed.Set("escape", nil)
			}
		}
		// Escape does nothing while quoting is disabled; stays unset.
	}

	if !parserGuessed.Has("null_string") {
		if ns := guessNullString(lines, delim, g.Candidates.NullStrings); ns != "" {
			parserGuessed.Set("null_string", ns)
		}
		// Deliberately left unset otherwise: an unset null representation
		// and an empty-string value must not be conflated downstream.
	}

	// Header-skip runs on the raw sample with empty-line skipping off,
	// because downstream parsing skips header lines before it skips empty
	// lines.
	records := g.tokenize(parserGuessed, false, lines, nil)
	counts := make([]int, len(records))
	for i, rec := range records {
		counts[i] = len(rec)
	}
	skip := guessSkipHeaderLines(counts)
	if skip > len(lines) {
		skip = len(lines)
	}
	lines = lines[skip:]

	quote := charOf(parserGuessed, "quote")
	nullString := parserGuessed.Options().String("null_string", "")
	if !parserGuessed.Has("comment_line_marker") {
		marker, filtered := guessCommentLineMarker(lines, delim, quote, nullString, g.Candidates.CommentMarkers)
		if marker != "" {
			parserGuessed.Set("comment_line_marker", marker)
		}
		lines = filtered
	} else if m := parserGuessed.Options().String("comment_line_marker", ""); m != "" {
		lines = filterCommentLines(lines, m, delim, quote, nullString)
	}

	records = g.tokenize(parserGuessed, true, lines, nil)
	if len(records) == 0 {
		outcome = "empty"
		return config.NewDiff(), nil
	}

	var headerLine bool
	var columnTypes []schema.ColumnType

	if len(lines) == 1 {
		// Single physical line: assume no header.
		headerLine = false
		columnTypes = typesOf(records[:1])

		if !parserGuessed.Has("trim_if_not_quoted") {
			trimmed := g.tokenize(parserGuessed, true, lines, boolPtr(true))
			trimmedTypes := typesOf(trimmed)
			if !schema.Equal(columnTypes, trimmedTypes) {
				parserGuessed.Set("trim_if_not_quoted", true)
				columnTypes = trimmedTypes
			} else {
				parserGuessed.Set("trim_if_not_quoted", false)
			}
		}
	} else {
		firstTypes := typesOf(records[:1])
		otherTypes := typesOf(records[1:])

		if !parserGuessed.Has("trim_if_not_quoted") {
			trimmed := g.tokenize(parserGuessed, true, lines, boolPtr(true))
			var trimmedOther []schema.ColumnType
			if len(trimmed) > 1 {
				trimmedOther = typesOf(trimmed[1:])
			}
			if !schema.Equal(otherTypes, trimmedOther) {
				parserGuessed.Set("trim_if_not_quoted", true)
				otherTypes = trimmedOther
			} else {
				parserGuessed.Set("trim_if_not_quoted", false)
			}
		}

		// The first record is a header when its types depart from the body
		// while being all strings or booleans, or when the length statistics
		// say so.
		headerLine = (!schema.Equal(firstTypes, otherTypes) && allStringOrBoolean(firstTypes)) ||
			guessStringHeaderLine(records)
		columnTypes = otherTypes
	}

	if len(columnTypes) == 0 {
		outcome = "empty"
		return config.NewDiff(), nil
	}

	if headerLine {
		parserGuessed.Set("skip_header_lines", skip+1)
	} else {
		parserGuessed.Set("skip_header_lines", skip)
	}

	if !parserGuessed.Has("allow_extra_columns") {
		parserGuessed.Set("allow_extra_columns", false)
	}
	if !parserGuessed.Has("allow_optional_columns") {
		parserGuessed.Set("allow_optional_columns", false)
	}

	var names []string
	if headerLine {
		for _, v := range records[0].Strings() {
			names = append(names, strings.TrimSpace(v))
		}
	} else {
		for i := range columnTypes {
			names = append(names, fmt.Sprintf("c%d", i))
		}
	}

	// Pair name and type only where both exist; a ragged final column must
	// not produce a half-defined schema entry.
	columns := make(schema.Schema, 0, len(columnTypes))
	for i := 0; i < len(names) && i < len(columnTypes); i++ {
		columns = append(columns, schema.Column{Name: names[i], Type: columnTypes[i]})
	}
	parserGuessed.Set("columns", columns)

	diff.SetNested("parser", parserGuessed)
	return diff, nil
}

// TokenizeSample tokenizes sample lines under the dialect carried by a
// guessed fragment, applying its skip_header_lines and comment filtering
// first. cmd/ingest uses it to load the sample rows it just guessed.
func (g *Guesser) TokenizeSample(parserDiff config.Diff, lines []string) []parsercsv.Record {
	o := parserDiff.Options()
	if skip := o.Int("skip_header_lines", 0); skip > 0 {
		if skip > len(lines) {
			skip = len(lines)
		}
		lines = lines[skip:]
	}
	if marker := o.String("comment_line_marker", ""); marker != "" {
		lines = filterCommentLines(lines, marker,
			o.Rune("delimiter", ','), charOf(parserDiff, "quote"), o.String("null_string", ""))
	}
	return g.tokenize(parserDiff, true, lines, nil)
}

func (g *Guesser) tokenize(p config.Diff, skipEmptyLines bool, lines []string, trimOverride *bool) []parsercsv.Record {
	o := p.Options()
	d := parsercsv.Dialect{
		Delimiter:  o.Rune("delimiter", ','),
		Quote:      charOf(p, "quote"),
		Escape:     charOf(p, "escape"),
		NullString: o.String("null_string", ""),
	}
	if trimOverride != nil {
		d.TrimIfNotQuoted = *trimOverride
	} else {
		d.TrimIfNotQuoted = o.Bool("trim_if_not_quoted", false)
	}
	return parsercsv.NewTokenizer(d, g.Warn).Tokenize(lines, skipEmptyLines)
}

// validateOverrides surfaces malformed override values before any heuristic
// runs; a mistyped override is a configuration error, not a guessing matter.
func validateOverrides(parserCfg config.Options) error {
	if ch, present, err := parserCfg.CharStrict("delimiter"); err != nil {
		return fmt.Errorf("guess: %w", err)
	} else if present && ch == 0 {
		return fmt.Errorf("guess: config: delimiter: must be a single character")
	}
	for _, key := range []string{"quote", "escape"} {
		if _, _, err := parserCfg.CharStrict(key); err != nil {
			return fmt.Errorf("guess: %w", err)
		}
	}
	for _, key := range []string{"null_string", "comment_line_marker"} {
		if _, _, err := parserCfg.StringStrict(key); err != nil {
			return fmt.Errorf("guess: %w", err)
		}
	}
	for _, key := range []string{"trim_if_not_quoted", "allow_extra_columns", "allow_optional_columns"} {
		if _, _, err := parserCfg.BoolStrict(key); err != nil {
			return fmt.Errorf("guess: %w", err)
		}
	}
	return nil
}

func typesOf(records []parsercsv.Record) []schema.ColumnType {
	rows := make([][]*string, len(records))
	for i, rec := range records {
		rows[i] = rec.Values()
	}
	return schema.TypesFromRows(rows)
}

func allStringOrBoolean(types []schema.ColumnType) bool {
	for _, t := range types {
		if t.Kind != schema.TypeString && t.Kind != schema.TypeBoolean {
			return false
		}
	}
	return true
}

// charOf reads an optional single-character value from a fragment. A key
// explicitly set to nil (or absent) yields 0.
func charOf(d config.Diff, key string) rune {
	if s, ok := d.Get(key).(string); ok && s != "" {
		r, _ := utf8.DecodeRuneInString(s)
		return r
	}
	return 0
}

func boolPtr(b bool) *bool { return &b }
