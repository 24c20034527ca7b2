package utils

import (
	"testing"
	"time"
)

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 21:30 local on Jan 1 is 02:30 UTC on Jan 2
	local := time.Date(2024, 1, 1, 21, 30, 0, 0, loc)

	if got := DayKey(local); got != "2024-01-02" {
		t.Errorf("DayKey() = %q, want 2024-01-02", got)
	}
	if got := PreviousDayKey(local); got != "2024-01-01" {
		t.Errorf("PreviousDayKey() = %q, want 2024-01-01", got)
	}
}

func TestPreviousDayKeyAcrossMonthAndYear(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-02-29"},
		{time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), "2024-12-31"},
	}
	for _, tt := range tests {
		if got := PreviousDayKey(tt.now); got != tt.want {
			t.Errorf("PreviousDayKey(%v) = %q, want %q", tt.now, got, tt.want)
		}
	}
}

func TestParseDayKey(t *testing.T) {
	if _, err := ParseDayKey("2024-13-01"); err == nil {
		t.Error("expected error for invalid month")
	}
	if ValidDayKey("01/02/2024") {
		t.Error("expected slash date to be invalid")
	}
	got, err := ParseDayKey("2024-01-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDayKey() = %v", got)
	}
}

func TestDayBounds(t *testing.T) {
	start, end, err := DayBounds("2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	wantEnd := time.Date(2024, 1, 3, 23, 59, 59, 999999999, time.UTC)
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}

	if _, _, err := DayBounds("2024-01-03", "2024-01-01"); err == nil {
		t.Error("expected error for reversed range")
	}
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	got := LastNDays(now, 3)
	want := []string{"2024-01-02", "2024-01-01", "2023-12-31"}
	if len(got) != len(want) {
		t.Fatalf("LastNDays() returned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LastNDays()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTimestampRoundTripSortsLexically(t *testing.T) {
	a := time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC)
	b := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	sa, sb := FormatTimestamp(a), FormatTimestamp(b)
	if !(sa < sb) {
		t.Errorf("expected %q < %q", sa, sb)
	}

	parsed, err := ParseTimestamp(sa)
	if err != nil {
		t.Fatalf("ParseTimestamp() error: %v", err)
	}
	if !parsed.Equal(a) {
		t.Errorf("round trip = %v, want %v", parsed, a)
	}

	if _, err := ParseTimestamp("2024-01-01T09:00:00+02:00"); err != nil {
		t.Errorf("expected RFC3339 fallback, got %v", err)
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct{ v, lo, hi, want int }{
		{0, 1, 60, 1},
		{14, 1, 60, 14},
		{100, 1, 60, 60},
	}
	for _, tt := range tests {
		if got := ClampInt(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
