package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO date format used for every bucketing key.
const DateLayout = "2006-01-02"

// ErrMalformedInput is returned when a date, instant or timezone cannot be interpreted.
var ErrMalformedInput = errors.New("malformed input")

// LoadLocation resolves an IANA timezone name. Unlike time.LoadLocation callers
// never fall back to UTC on failure.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, fmt.Errorf("%w: timezone is required", ErrMalformedInput)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q: %v", ErrMalformedInput, tz, err)
	}
	return loc, nil
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrMalformedInput, s)
	}
	return d, nil
}

// ParseInstant parses an RFC3339 timestamp and returns it in UTC.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedInput, s)
	}
	return t.UTC(), nil
}

// DayBounds returns [start, end) of the calendar day containing date in loc.
// The end is computed with time.Date so DST transitions yield 23h or 25h days.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	local := date.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}

// DayKey returns the YYYY-MM-DD of instant as observed in loc.
func DayKey(instant time.Time, loc *time.Location) string {
	return instant.In(loc).Format(DateLayout)
}

// IsWeekend reports whether date falls on Saturday or Sunday in loc.
func IsWeekend(date time.Time, loc *time.Location) bool {
	switch date.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// NominalStart returns the configured day start on the local day containing day.
func NominalStart(day time.Time, loc *time.Location, hour, minute int) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
}

// WithinGrace reports whether punch happened at or before nominal start plus grace.
func WithinGrace(punch time.Time, loc *time.Location, hour, minute, graceMinutes int) bool {
	limit := NominalStart(punch, loc, hour, minute).Add(time.Duration(graceMinutes) * time.Minute)
	return !punch.After(limit)
}

// LateMinutes is the whole minutes between nominal start and punch, or 0
// when the punch is within grace.
func LateMinutes(punch time.Time, loc *time.Location, hour, minute, graceMinutes int) int {
	if WithinGrace(punch, loc, hour, minute, graceMinutes) {
		return 0
	}
	diff := punch.Sub(NominalStart(punch, loc, hour, minute)).Minutes()
	return int(math.Floor(diff))
}

// WeekStart returns midnight of the ISO week's Monday containing date in loc.
func WeekStart(date time.Time, loc *time.Location) time.Time {
	start, _ := DayBounds(date, loc)
	offset := (int(start.Weekday()) + 6) % 7
	return time.Date(start.Year(), start.Month(), start.Day()-offset, 0, 0, 0, 0, loc)
}

// WeekDays returns the seven day keys of the ISO week starting at weekStart.
func WeekDays(weekStart time.Time, loc *time.Location) []string {
	local := weekStart.In(loc)
	days := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, time.Date(local.Year(), local.Month(), local.Day()+i, 0, 0, 0, 0, loc).Format(DateLayout))
	}
	return days
}

// DaysBetween lists every day key from `from` to `to` inclusive.
func DaysBetween(from, to time.Time, loc *time.Location) []string {
	start, _ := DayBounds(from, loc)
	last, _ := DayBounds(to, loc)
	var days []string
	for d := start; !d.After(last); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// MinutesBetween returns whole minutes from a to b, floored at zero.
func MinutesBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a) / time.Minute)
}
