package storage

import (
	"fmt"
	"time"
)

// parseTimestamp parses under the column's inferred layout. An empty layout
// means the schema came from hand-written configuration; RFC 3339 is the
// only sensible reading then.
func parseTimestamp(v, layout string) (time.Time, error) {
	if layout == "" {
		layout = time.RFC3339
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a timestamp in layout %s", v, layout)
	}
	return t, nil
}
