package guess

import (
	"fmt"
	"regexp"
)

// guessEscape looks for candidate characters immediately followed by the
// delimiter or the quote, the footprint of a character functioning as an
// escape. Runs only when quoting is enabled. With no evidence at all, a
// double-quote dialect falls back to RFC doubled-quote escaping and any
// other dialect disables escaping (returns 0).
func guessEscape(lines []string, delim, quote rune, candidates []rune) rune {
	var selected rune
	maxCount := 0

	for _, esc := range candidates {
		re := regexp.MustCompile(fmt.Sprintf("%s(?:%s|%s)",
			regexp.QuoteMeta(string(esc)),
			regexp.QuoteMeta(string(delim)),
			regexp.QuoteMeta(string(quote))))
		count := 0
		for _, line := range lines {
			count += countPattern(line, re)
		}
		if count > maxCount {
			selected = esc
			maxCount = count
		}
	}

	if selected == 0 {
		if quote == '"' {
			return '"'
		}
		return 0
	}
	return selected
}
