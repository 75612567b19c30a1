package utils

import "time"

// NowUTC returns the current time truncated to milliseconds in UTC, the
// precision stored for every record.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FormatSortKey renders a timestamp so that lexical order equals time order.
func FormatSortKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
