package domain

import "time"

// TimestampLayouts are the accepted timestamp formats, tried in order.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	time.DateTime,
	time.DateOnly,
}

// ValidTimestamp reports whether s parses as a date-time in one of the
// accepted layouts.
func ValidTimestamp(s string) bool {
	for _, layout := range TimestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
