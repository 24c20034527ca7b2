package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/innerlog/internal/constants"
)

// DayKey returns the UTC day key (YYYY-MM-DD) for t.
func DayKey(t time.Time) string {
	return t.UTC().Format(constants.DateFormat)
}

// PreviousDayKey returns the UTC day key of the calendar day before t.
func PreviousDayKey(t time.Time) string {
	return DayKey(t.UTC().AddDate(0, 0, -1))
}

// ParseDayKey parses a YYYY-MM-DD key as midnight UTC.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", key, err)
	}
	return t, nil
}

// ValidDayKey reports whether key is a well-formed day key
func ValidDayKey(key string) bool {
	_, err := ParseDayKey(key)
	return err == nil
}

// DayBounds returns the first and last instants of the UTC day range
// [startKey, endKey], both inclusive.
func DayBounds(startKey, endKey string) (time.Time, time.Time, error) {
	start, err := ParseDayKey(startKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDayKey(endKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", endKey, startKey)
	}
	return start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// LastNDays returns the day keys of the n days ending at t, most recent first.
func LastNDays(t time.Time, n int) []string {
	keys := make([]string, 0, n)
	day := t.UTC()
	for i := 0; i < n; i++ {
		keys = append(keys, DayKey(day.AddDate(0, 0, -i)))
	}
	return keys
}

// FormatTimestamp renders t in the fixed-width UTC storage format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// ParseTimestamp parses a stored timestamp, accepting RFC3339 as well.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(constants.TimestampFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
