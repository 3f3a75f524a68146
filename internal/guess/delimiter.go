package guess

import "strings"

// guessDelimiter scores each candidate by total occurrences divided by the
// standard deviation of its per-line counts: a real field separator occurs
// often and uniformly. Candidates with no occurrences are skipped; the first
// listed candidate wins ties. Below the weight threshold the sample is
// assumed to be a single-column file and the first candidate is returned.
func guessDelimiter(lines []string, candidates []rune) rune {
	var selected rune
	mostWeight := 0.0

	for _, delim := range candidates {
		counts := make([]int, 0, len(lines))
		for _, line := range lines {
			counts = append(counts, strings.Count(line, string(delim)))
		}
		total := sumInts(counts)
		if total == 0 {
			continue
		}
		weight := float64(total) / stddevInts(counts)
		if weight > mostWeight {
			selected = delim
			mostWeight = weight
		}
	}

	if selected != 0 && mostWeight > delimiterWeightThreshold {
		return selected
	}
	return candidates[0]
}
