package schema

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts is the ordered layout table that defines what "one
// consistent format" means for a timestamp column. The first layout that
// parses a column's first non-absent value is the column's candidate format;
// every later value must parse under that same layout.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

// TypesFromRows widens column-aligned rows of optional string values into one
// ColumnType per column:
//
//   - all integer            -> long
//   - integer/real mix       -> double
//   - all boolean            -> boolean
//   - all timestamps parsing -> timestamp{format}
//     under one layout
//   - anything else          -> string
//
// Absent values (nil) never constrain the result; an all-absent column is a
// string column. The result is deterministic for identical input.
//
// The column count is the widest row; short rows simply contribute absent
// values to the trailing columns.
func TypesFromRows(rows [][]*string) []ColumnType {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return nil
	}

	out := make([]ColumnType, width)
	for col := 0; col < width; col++ {
		out[col] = inferColumn(rows, col)
	}
	return out
}

func inferColumn(rows [][]*string, col int) ColumnType {
	var (
		seen      bool
		allLong   = true
		allDouble = true
		allBool   = true
		allTS     = true
		tsLayout  string
	)

	for _, r := range rows {
		if col >= len(r) || r[col] == nil {
			continue
		}
		v := *r[col]
		seen = true

		if allLong {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allLong = false
			}
		}
		if allDouble {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allDouble = false
			}
		}
		if allBool && !isBooleanWord(v) {
			allBool = false
		}
		if allTS {
			tsLayout, allTS = checkTimestamp(v, tsLayout)
		}
	}

	if !seen {
		return ColumnType{Kind: TypeString}
	}
	switch {
	case allBool:
		return ColumnType{Kind: TypeBoolean}
	case allLong:
		return ColumnType{Kind: TypeLong}
	case allDouble:
		return ColumnType{Kind: TypeDouble}
	case allTS:
		return ColumnType{Kind: TypeTimestamp, Format: tsLayout}
	default:
		return ColumnType{Kind: TypeString}
	}
}

// checkTimestamp verifies v against the column's candidate layout, choosing
// one from the layout table when the column has none yet.
func checkTimestamp(v, layout string) (string, bool) {
	if layout != "" {
		if _, err := time.Parse(layout, v); err != nil {
			return layout, false
		}
		return layout, true
	}
	for _, lay := range timestampLayouts {
		if _, err := time.Parse(lay, v); err == nil {
			return lay, true
		}
	}
	return "", false
}

// isBooleanWord accepts common textual boolean encodings, case-insensitive.
// Digits are deliberately excluded so 0/1 columns stay long.
func isBooleanWord(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no", "y", "n":
		return true
	default:
		return false
	}
}
