package guess

import (
	"fmt"
	"regexp"
	"strings"
)

// guessQuote scores each quote candidate over the lines that contain it:
// raw occurrence count plus a structural bonus for spans that look like
// actual quoted fields. Per-candidate score is the average over matching
// lines. When the best average stays under the threshold, quoting is either
// defaulted (RFC-style double quote) or disabled entirely when the default
// quote demonstrably appears mid-field.
//
// The returned rune is 0 when quoting should be disabled.
func guessQuote(lines []string, delim rune, candidates []rune) rune {
	var selected rune
	mostWeight := 0.0

	for _, q := range candidates {
		weights := make([]int, 0, len(lines))
		for _, line := range lines {
			count := strings.Count(line, string(q))
			if count > 0 {
				weights = append(weights, count+weighQuote(line, delim, q))
			}
		}
		weight := averageInts(weights)
		if weight > mostWeight {
			selected = q
			mostWeight = weight
		}
	}
	if mostWeight >= quoteScoreThreshold {
		return selected
	}

	// No strong signal. The first candidate is the assumed RFC default;
	// disable quoting only when it provably appears inside unquoted values.
	def := candidates[0]
	if !forceNoQuote(lines, delim, def) {
		return def
	}
	return 0
}

// weighQuote counts structural quote patterns on one line. Both patterns
// demand a span that starts at the line start or right after a delimiter and
// ends at the line end or right before one:
//
//   - clean:     quote, interior without quotes, quote
//   - delimited: quote, interior without delimiters, quote
//
// Matches are counted non-overlapping, left to right.
func weighQuote(line string, delim, q rune) int {
	d := regexp.QuoteMeta(string(delim))
	qq := regexp.QuoteMeta(string(q))

	clean := regexp.MustCompile(fmt.Sprintf(`(?:^|%s)\s*%s[^%s]*%s(?:$|%s)`, d, qq, qq, qq, d))
	delimited := regexp.MustCompile(fmt.Sprintf(`(?:^|%s)\s*%s[^%s]*%s(?:$|%s)`, d, qq, d, qq, d))

	return countPattern(line, clean)*quoteWeightClean + countPattern(line, delimited)*quoteWeightDelimited
}

// forceNoQuote reports whether any line consists entirely of an unquoted
// value with the quote character in its middle, a shape real quoting would
// never produce.
func forceNoQuote(lines []string, delim, q rune) bool {
	d := regexp.QuoteMeta(string(delim))
	qq := regexp.QuoteMeta(string(q))
	pattern := regexp.MustCompile(fmt.Sprintf(`^%s?\s*[^%s]+%s$`, d, qq, qq))

	for _, line := range lines {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

func countPattern(s string, re *regexp.Regexp) int {
	return len(re.FindAllString(s, -1))
}
