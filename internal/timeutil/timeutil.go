package timeutil

import (
	"time"
)

// DateKeyFormat is the calendar-day form used both as performance document
// identifiers and as report column headers.
const DateKeyFormat = "2006-01-02"

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// FormatDateKey renders the timestamp as a YYYY-MM-DD key in UTC.
func FormatDateKey(t time.Time) string {
	return t.In(time.UTC).Format(DateKeyFormat)
}

// ParseDateKey parses a YYYY-MM-DD key into a UTC midnight timestamp.
func ParseDateKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyFormat, key, time.UTC)
}

// NormalizeUTC converts the timestamp to UTC. Timestamps decoded without
// zone information are taken to already be UTC.
func NormalizeUTC(t time.Time) time.Time {
	return t.In(time.UTC)
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateRange returns the dense ascending sequence of date keys covering
// [start, end] inclusive, one per calendar day. A start after end yields an
// empty sequence rather than an error.
func DateRange(start, end time.Time) []string {
	first := TruncateToDay(start.In(time.UTC), time.UTC)
	last := TruncateToDay(end.In(time.UTC), time.UTC)
	if first.After(last) {
		return nil
	}
	days := int(last.Sub(first).Hours()/24) + 1
	keys := make([]string, 0, days)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateKeyFormat))
	}
	return keys
}

// DateRangeFrom returns n consecutive date keys starting at the given
// anchor's calendar day, covering [anchor, anchor+n days).
func DateRangeFrom(anchor time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	first := TruncateToDay(anchor.In(time.UTC), time.UTC)
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, first.AddDate(0, 0, i).Format(DateKeyFormat))
	}
	return keys
}
