// Package mint formats the human-readable identifiers used across the back
// office: item serial numbers, issue IDs, fine IDs and membership IDs.
// Sequence numbers are allocated by the stores; this package only formats.
package mint

import (
	"fmt"
	"time"
)

// categoryPrefixes maps item categories to their serial-number prefix.
var categoryPrefixes = map[string]string{
	"Science":              "SC",
	"Economics":            "EC",
	"Fiction":              "FC",
	"Children":             "CH",
	"Personal Development": "PD",
}

// CategoryPrefix returns the two-letter prefix for a category. Unknown
// categories fall back to BK for books and MV for movies.
func CategoryPrefix(itemType, category string) string {
	if prefix, ok := categoryPrefixes[category]; ok {
		return prefix
	}
	if itemType == "Movie" {
		return "MV"
	}
	return "BK"
}

// SerialNo formats an item serial number, e.g. SC(B/M)000001.
func SerialNo(itemType, category string, seq int64) string {
	return fmt.Sprintf("%s(B/M)%06d", CategoryPrefix(itemType, category), seq)
}

// IssueID formats an issue identifier, e.g. ISS-2401-0001. The YYMM part is
// taken from the issue time; the sequence is global and never resets, so the
// numbers carry across months.
func IssueID(t time.Time, seq int64) string {
	return fmt.Sprintf("ISS-%02d%02d-%04d", t.Year()%100, int(t.Month()), seq)
}

// FineID formats a fine identifier, e.g. FINE000001.
func FineID(seq int64) string {
	return fmt.Sprintf("FINE%06d", seq)
}

// MembershipID formats a membership identifier, e.g. MEM000001.
func MembershipID(seq int64) string {
	return fmt.Sprintf("MEM%06d", seq)
}

// SerialScope returns the sequence scope for item serials: one counter per
// prefix. Books and movies of the same category share the SC(B/M)-style
// prefix, so they share a counter; serial numbers stay unique.
func SerialScope(itemType, category string) string {
	return "serial:" + CategoryPrefix(itemType, category)
}

const (
	// IssueScope is the sequence scope for issue IDs.
	IssueScope = "issue"
	// FineScope is the sequence scope for fine IDs.
	FineScope = "fine"
	// MembershipScope is the sequence scope for membership IDs.
	MembershipScope = "membership"
)
