// Package csv implements a dialect-aware tokenizer over an in-memory line
// sample. It exists to serve dialect guessing: the guesser re-tokenizes the
// same sample under different dialect variations and compares the results,
// so tokenization must be lenient and must never abort the whole sample.
//
// Two conditions are recovered locally:
//
//   - an unterminated quote at end of input closes the current record and
//     keeps the partial fields gathered so far;
//   - a malformed value (garbage after a closing quote) drops the offending
//     physical line with a warning and tokenization resumes on the next line.
package csv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidValue marks a malformed token, e.g. trailing characters between a
// closing quote and the next delimiter. The line carrying it is dropped.
var ErrInvalidValue = errors.New("csv: invalid value")

// Dialect is a fully resolved set of syntactic parameters. Zero runes mean
// "disabled" for Quote and Escape; an empty NullString means none configured.
type Dialect struct {
	Delimiter       rune
	Quote           rune
	Escape          rune
	NullString      string
	TrimIfNotQuoted bool
}

// Field is one tokenized value. A nil Value is an absent value (the raw text
// matched the configured null string and the field was not quoted).
type Field struct {
	Value  *string
	Quoted bool
}

// Record is an ordered field sequence. A single record may span multiple
// physical lines when a quoted field contains line boundaries.
type Record []Field

// Values returns the optional string values in column order.
func (r Record) Values() []*string {
	out := make([]*string, len(r))
	for i := range r {
		out[i] = r[i].Value
	}
	return out
}

// Strings returns the record with absent values rendered as empty strings.
// Used by report output and column naming.
func (r Record) Strings() []string {
	out := make([]string, len(r))
	for i := range r {
		if r[i].Value != nil {
			out[i] = *r[i].Value
		}
	}
	return out
}

// Tokenizer scans sample lines under a fixed dialect.
type Tokenizer struct {
	d    Dialect
	warn func(line int, err error)
}

// NewTokenizer returns a tokenizer for the dialect. warn receives dropped-line
// diagnostics and may be nil.
func NewTokenizer(d Dialect, warn func(line int, err error)) *Tokenizer {
	if warn == nil {
		warn = func(int, error) {}
	}
	return &Tokenizer{d: d, warn: warn}
}

// Tokenize converts the sample into records. Lines consumed as the interior
// of a quoted field do not start records of their own. When skipEmptyLines is
// set, empty physical lines between records are ignored; otherwise each empty
// line yields a record holding one empty field.
func (t *Tokenizer) Tokenize(lines []string, skipEmptyLines bool) []Record {
	var records []Record

	for i := 0; i < len(lines); {
		if skipEmptyLines && lines[i] == "" {
			i++
			continue
		}
		rec, next, err := t.readRecord(lines, i)
		if err != nil {
			// next is the offending physical line; drop it and resume after.
			t.warn(next+1, err)
			i = next + 1
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
		i = next
	}
	return records
}

// readRecord reads one logical record starting at line index start. It
// returns the record and the index of the first unconsumed line. On a
// malformed value it returns the index of the offending line and an error.
func (t *Tokenizer) readRecord(lines []string, start int) (Record, int, error) {
	line := []rune(lines[start])
	pos := 0
	i := start

	var rec Record
	for {
		field, newPos, newI, err := t.readField(lines, line, pos, i)
		if err != nil {
			return nil, newI, err
		}
		rec = append(rec, field)
		if newI != i {
			i = newI
			if i >= len(lines) {
				// Unterminated quote consumed the rest of the sample; the
				// record closes with the partial fields gathered so far.
				return rec, len(lines), nil
			}
			line = []rune(lines[i])
		}
		pos = newPos

		if pos < len(line) && line[pos] == t.d.Delimiter {
			pos++
			if pos >= len(line) {
				// Trailing delimiter yields a trailing empty field.
				rec = append(rec, t.finishField("", false))
				return rec, i + 1, nil
			}
			continue
		}
		if pos >= len(line) {
			return rec, i + 1, nil
		}
		return nil, i, fmt.Errorf("%w: unexpected %q after field", ErrInvalidValue, line[pos])
	}
}

// readField reads a single field beginning at line[pos]. It returns the
// field, the position just past it, and the (possibly advanced) line index.
func (t *Tokenizer) readField(lines []string, line []rune, pos, lineIdx int) (Field, int, int, error) {
	if t.d.TrimIfNotQuoted {
		for pos < len(line) && isBlank(line[pos]) {
			pos++
		}
	}

	if t.d.Quote != 0 && pos < len(line) && line[pos] == t.d.Quote {
		return t.readQuoted(lines, line, pos+1, lineIdx)
	}
	return t.readUnquoted(line, pos, lineIdx)
}

func (t *Tokenizer) readUnquoted(line []rune, pos, lineIdx int) (Field, int, int, error) {
	startPos := pos
	for pos < len(line) && line[pos] != t.d.Delimiter {
		pos++
	}
	raw := string(line[startPos:pos])
	if t.d.TrimIfNotQuoted {
		raw = strings.TrimSpace(raw)
	}
	return t.finishField(raw, false), pos, lineIdx, nil
}

// readQuoted consumes a quoted field starting just past the opening quote.
// Quoted fields accept arbitrary characters, including delimiters and line
// boundaries; interior line boundaries become newlines in the value.
func (t *Tokenizer) readQuoted(lines []string, line []rune, pos, lineIdx int) (Field, int, int, error) {
	var b strings.Builder

	for {
		if pos >= len(line) {
			// Quote still open at end of this physical line: the record
			// continues on the next one.
			lineIdx++
			if lineIdx >= len(lines) {
				// End of input with an open quote. Close the field with
				// whatever was gathered; the caller closes the record.
				return Field{Value: ptr(b.String()), Quoted: true}, 0, lineIdx, nil
			}
			b.WriteByte('\n')
			line = []rune(lines[lineIdx])
			pos = 0
			continue
		}

		c := line[pos]
		switch {
		case t.d.Escape != 0 && c == t.d.Escape && t.d.Escape == t.d.Quote:
			// Doubled-quote convention: a quote pair is a literal quote, a
			// lone quote closes the field.
			if pos+1 < len(line) && line[pos+1] == t.d.Quote {
				b.WriteRune(t.d.Quote)
				pos += 2
				continue
			}
			return t.closeQuoted(&b, line, pos+1, lineIdx)

		case t.d.Escape != 0 && c == t.d.Escape:
			if pos+1 < len(line) {
				switch line[pos+1] {
				case t.d.Quote:
					b.WriteRune(t.d.Quote)
					pos += 2
					continue
				case t.d.Escape:
					b.WriteRune(t.d.Escape)
					pos += 2
					continue
				}
			}
			b.WriteRune(c)
			pos++

		case c == t.d.Quote:
			return t.closeQuoted(&b, line, pos+1, lineIdx)

		default:
			b.WriteRune(c)
			pos++
		}
	}
}

// closeQuoted validates what follows a closing quote. Only a delimiter, the
// end of the line, or (when trimming) blanks before either are acceptable;
// anything else is a malformed value and drops the line.
func (t *Tokenizer) closeQuoted(b *strings.Builder, line []rune, pos, lineIdx int) (Field, int, int, error) {
	if t.d.TrimIfNotQuoted {
		for pos < len(line) && isBlank(line[pos]) {
			pos++
		}
	}
	if pos < len(line) && line[pos] != t.d.Delimiter {
		return Field{}, 0, lineIdx, fmt.Errorf("%w: trailing %q after closing quote", ErrInvalidValue, line[pos])
	}
	return Field{Value: ptr(b.String()), Quoted: true}, pos, lineIdx, nil
}

// finishField applies null-string substitution. A quoted field matching the
// null string stays literal; quoting signals intent.
func (t *Tokenizer) finishField(raw string, quoted bool) Field {
	if !quoted && t.d.NullString != "" && raw == t.d.NullString {
		return Field{Value: nil, Quoted: false}
	}
	return Field{Value: ptr(raw), Quoted: quoted}
}

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func ptr(s string) *string { return &s }
