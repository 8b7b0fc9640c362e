package web

import (
	"fmt"
	"time"
)

// dateLayouts are the accepted request date formats, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a request date that may be a full timestamp or a plain
// calendar date.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
