package schedule

import (
	"strconv"
	"strings"
	"time"
)

// SlotTime is a canonical time of day.
type SlotTime struct {
	Hour   int
	Minute int
}

// ParseSlotTime normalizes a configured slot time to a canonical hour and
// minute. Both 24-hour ("10:30", "04:48") and 12-hour with an AM/PM suffix
// ("10:30 AM", "1:05pm") are accepted. Malformed input returns false: a slot
// that cannot be parsed never matches and never crashes the loop.
func ParseSlotTime(raw string) (SlotTime, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SlotTime{}, false
	}

	meridiem := ""
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(upper, "PM"):
		meridiem = "PM"
	}
	if meridiem != "" {
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourPart, minutePart, hasMinute := strings.Cut(s, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return SlotTime{}, false
	}
	minute := 0
	if hasMinute {
		minute, err = strconv.Atoi(strings.TrimSpace(minutePart))
		if err != nil {
			return SlotTime{}, false
		}
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return SlotTime{}, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return SlotTime{}, false
	}
	return SlotTime{Hour: hour, Minute: minute}, true
}

// Matches reports whether the wall clock is inside this slot's minute.
func (t SlotTime) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// Key returns the at-most-once firing key for this slot on the given day,
// e.g. "2026-02-17_10_30". Two ticks landing inside the same minute produce
// the same key, so the slot fires once.
func (t SlotTime) Key(now time.Time) string {
	return now.Format("2006-01-02") + "_" +
		pad2(t.Hour) + "_" + pad2(t.Minute)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseDuration reads lenient duration strings from section documents:
// "15 min", "5", "2 minutes" all work. Anything unparseable or below one
// minute yields the fallback.
func ParseDuration(raw string, fallback time.Duration) time.Duration {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}
	digits := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	minutes, err := strconv.Atoi(digits.String())
	if err != nil || minutes < 1 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
