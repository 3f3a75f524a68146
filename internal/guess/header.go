package guess

import (
	"math"

	parsercsv "csvguess/internal/parser/csv"
)

// guessStringHeaderLine is the statistical half of header detection: even
// when the first record's types match the body (all strings, say), a header
// usually has value lengths far from the body's. For each column, collect
// the lengths of present values across all records; if the body lengths are
// near-constant (variance <= 0.2) and the first length deviates from their
// mean by more than 70% relatively (or is longer than one character when
// that mean is zero), the first record is a header.
func guessStringHeaderLine(records []parsercsv.Record) bool {
	if len(records) == 0 {
		return false
	}
	first := records[0]

	for col := 0; col < len(first); col++ {
		lengths := make([]int, 0, len(records))
		for _, rec := range records {
			if col < len(rec) && rec[col].Value != nil {
				lengths = append(lengths, len(*rec[col].Value))
			}
		}
		if len(lengths) <= 1 {
			continue
		}
		body := lengths[1:]
		if varianceInts(body) > 0.2 {
			continue
		}
		avg := averageInts(body)
		if avg == 0 {
			if lengths[0] > 1 {
				return true
			}
		} else if math.Abs(avg-float64(lengths[0]))/avg > 0.7 {
			return true
		}
	}
	return false
}
