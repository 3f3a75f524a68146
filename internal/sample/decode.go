package sample

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Decode converts raw sample bytes to UTF-8 text. charset accepts any name
// the WHATWG encoding index knows; empty defaults to UTF-8. A leading UTF-8
// byte order mark is dropped.
func Decode(raw []byte, charset string) (string, error) {
	if charset == "" {
		charset = "utf-8"
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("sample: unknown charset %q: %w", charset, err)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("sample: decode %s: %w", charset, err)
	}
	decoded = bytes.TrimPrefix(decoded, []byte{0xEF, 0xBB, 0xBF})
	return string(decoded), nil
}

// SplitLines splits decoded text into terminator-free sample lines. CRLF and
// lone CR both terminate lines. When truncated is set, the fetch hit its
// byte bound and the final line is almost certainly cut mid-record, so it is
// dropped.
func SplitLines(text string, truncated bool) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if truncated {
		i := strings.LastIndexByte(text, '\n')
		if i < 0 {
			// One incomplete line; no usable sample at all.
			return nil
		}
		text = text[:i]
	} else {
		text = strings.TrimSuffix(text, "\n")
	}
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
