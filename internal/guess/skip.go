package guess

import "strings"

// guessSkipHeaderLines finds a ragged leading prefix in the per-record
// column counts. Banner and metadata rows preceding tabular data tend to
// have irregular, lower column counts than the stable body: for each
// position i, if the following skipDetectLines records never exceed the
// column count at i-1, the prefix ends at i-1.
func guessSkipHeaderLines(counts []int) int {
	limit := maxSkipLines
	if len(counts)-1 < limit {
		limit = len(counts) - 1
	}
	for i := 1; i <= limit; i++ {
		threshold := counts[i-1]
		end := i + skipDetectLines
		if end > len(counts) {
			end = len(counts)
		}
		stable := true
		for k := i; k < end; k++ {
			if counts[k] > threshold {
				stable = false
				break
			}
		}
		if stable {
			return i - 1
		}
	}
	return 0
}

// guessCommentLineMarker picks the marker matching the most lines and
// returns it along with the sample minus the matched lines. Lines that start
// with the quote character, or with the null string followed by a delimiter
// or the line end, are data lines and are excluded from candidacy (and never
// removed). A single pass; the filtered sample is not re-scanned.
//
// Returns ("", lines) unchanged when no candidate matches anything.
func guessCommentLineMarker(lines []string, delim, quote rune, nullString string, candidates []string) (string, []string) {
	excluded := func(line string) bool {
		if quote != 0 && strings.HasPrefix(line, string(quote)) {
			return true
		}
		if nullString != "" && strings.HasPrefix(line, nullString) {
			rest := line[len(nullString):]
			if rest == "" || strings.HasPrefix(rest, string(delim)) {
				return true
			}
		}
		return false
	}

	selected := ""
	maxCount := 0
	for _, marker := range candidates {
		count := 0
		for _, line := range lines {
			if !excluded(line) && strings.HasPrefix(line, marker) {
				count++
			}
		}
		if count > maxCount {
			selected = marker
			maxCount = count
		}
	}
	if selected == "" {
		return "", lines
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !excluded(line) && strings.HasPrefix(line, selected) {
			continue
		}
		kept = append(kept, line)
	}
	return selected, kept
}

// filterCommentLines applies an already-configured marker with the same
// exclusion rules, for the override path.
func filterCommentLines(lines []string, marker string, delim, quote rune, nullString string) []string {
	if marker == "" {
		return lines
	}
	_, kept := guessCommentLineMarker(lines, delim, quote, nullString, []string{marker})
	return kept
}
