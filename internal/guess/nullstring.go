package guess

import (
	"fmt"
	"regexp"
)

// guessNullString counts candidate strings standing alone as a whole field:
// preceded by the line start or a delimiter and followed by the line end or
// a delimiter. Returns "" when no candidate scores, deliberately leaving the
// null representation unset rather than defaulting it; an empty-string value
// and "no null string configured" must stay distinguishable downstream.
func guessNullString(lines []string, delim rune, candidates []string) string {
	selected := ""
	maxCount := 0

	for _, s := range candidates {
		re := regexp.MustCompile(fmt.Sprintf("(?:^|%s)%s(?:$|%s)",
			regexp.QuoteMeta(string(delim)),
			regexp.QuoteMeta(s),
			regexp.QuoteMeta(string(delim))))
		count := 0
		for _, line := range lines {
			count += countPattern(line, re)
		}
		if count > maxCount {
			selected = s
			maxCount = count
		}
	}
	return selected
}
