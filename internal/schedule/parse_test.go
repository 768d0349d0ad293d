package schedule

import (
	"testing"
	"time"
)

func TestParseSlotTime(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"10:30", 10, 30, true},
		{"04:48", 4, 48, true},
		{"0:00", 0, 0, true},
		{"23:59", 23, 59, true},
		{"7", 7, 0, true},
		{" 10:30 ", 10, 30, true},
		{"10:30 AM", 10, 30, true},
		{"10:30AM", 10, 30, true},
		{"1:05pm", 13, 5, true},
		{"12:00 AM", 0, 0, true},
		{"12:00 PM", 12, 0, true},
		{"12 PM", 12, 0, true},
		{"13:00 PM", 0, 0, false},
		{"0:30 AM", 0, 0, false},
		{"24:00", 0, 0, false},
		{"10:60", 0, 0, false},
		{"", 0, 0, false},
		{"lunch", 0, 0, false},
		{"10:3x", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseSlotTime(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseSlotTime(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && (got.Hour != tc.hour || got.Minute != tc.minute) {
			t.Fatalf("ParseSlotTime(%q) = %d:%d, want %d:%d", tc.in, got.Hour, got.Minute, tc.hour, tc.minute)
		}
	}
}

func TestSlotKeyFormat(t *testing.T) {
	now := time.Date(2026, 2, 17, 10, 30, 45, 0, time.Local)
	slot := SlotTime{Hour: 10, Minute: 30}
	if got := slot.Key(now); got != "2026-02-17_10_30" {
		t.Fatalf("unexpected slot key %q", got)
	}
	single := SlotTime{Hour: 4, Minute: 5}
	if got := single.Key(now); got != "2026-02-17_04_05" {
		t.Fatalf("expected zero-padded key, got %q", got)
	}
}

func TestSlotTimeMatches(t *testing.T) {
	slot := SlotTime{Hour: 10, Minute: 30}
	if !slot.Matches(time.Date(2026, 2, 17, 10, 30, 59, 0, time.Local)) {
		t.Fatal("expected match inside the minute")
	}
	if slot.Matches(time.Date(2026, 2, 17, 10, 31, 0, 0, time.Local)) {
		t.Fatal("expected no match in the next minute")
	}
}

func TestParseDuration(t *testing.T) {
	fallback := 10 * time.Minute
	cases := map[string]time.Duration{
		"15 min":     15 * time.Minute,
		"5 min":      5 * time.Minute,
		"2":          2 * time.Minute,
		"30 minutes": 30 * time.Minute,
		"":           fallback,
		"soon":       fallback,
		"0 min":      fallback,
	}
	for in, want := range cases {
		if got := ParseDuration(in, fallback); got != want {
			t.Fatalf("ParseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}
