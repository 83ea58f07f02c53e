package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks a rejected schedule config update. Controllers
// map it to a 400.
var ErrValidation = errors.New("invalid schedule config")

// Config is the weekly test schedule as a plain value. Week1StartDate
// is a local calendar date (YYYY-MM-DD) and is kept aligned onto
// TestDayOfWeek by Sanitize.
type Config struct {
	Week1StartDate    string `json:"week1StartDate"`
	TestDayOfWeek     int    `json:"testDayOfWeek"` // 0=Sunday .. 6=Saturday
	WindowStartHour   int    `json:"windowStartHour"`
	WindowStartMinute int    `json:"windowStartMinute"`
	WindowEndHour     int    `json:"windowEndHour"`
	WindowEndMinute   int    `json:"windowEndMinute"`
}

// baseConfig is the last-resort fallback when neither the environment
// nor the database has anything usable.
var baseConfig = Config{
	Week1StartDate:    "2026-02-21",
	TestDayOfWeek:     6,
	WindowStartHour:   7,
	WindowStartMinute: 0,
	WindowEndHour:     23,
	WindowEndMinute:   59,
}

// ParseDate parses a YYYY-MM-DD string as a local-midnight date.
func ParseDate(value string) (time.Time, bool) {
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func isoDateTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// alignToDay moves a date forward to the next occurrence of the given
// weekday; a date already on that weekday is returned unchanged.
func alignToDay(date time.Time, dayOfWeek int) time.Time {
	delta := (dayOfWeek - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, delta)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Sanitize coerces a candidate into a usable config, field by field,
// falling back to the given config for anything unusable. The anchor
// date is realigned forward onto the test day, which makes Sanitize a
// fixed point on already-normalized configs.
func Sanitize(candidate, fallback Config) Config {
	day := candidate.TestDayOfWeek
	if day < 0 || day > 6 {
		day = clamp(fallback.TestDayOfWeek, 0, 6)
	}

	rawDate, ok := ParseDate(candidate.Week1StartDate)
	if !ok {
		if rawDate, ok = ParseDate(fallback.Week1StartDate); !ok {
			rawDate, _ = ParseDate(baseConfig.Week1StartDate)
		}
	}

	return Config{
		Week1StartDate:    isoDate(alignToDay(rawDate, day)),
		TestDayOfWeek:     day,
		WindowStartHour:   clampOr(candidate.WindowStartHour, fallback.WindowStartHour, 0, 23),
		WindowStartMinute: clampOr(candidate.WindowStartMinute, fallback.WindowStartMinute, 0, 59),
		WindowEndHour:     clampOr(candidate.WindowEndHour, fallback.WindowEndHour, 0, 23),
		WindowEndMinute:   clampOr(candidate.WindowEndMinute, fallback.WindowEndMinute, 0, 59),
	}
}

func clampOr(value, fallback, min, max int) int {
	if value < min || value > max {
		return clamp(fallback, min, max)
	}
	return value
}

// Validate rejects a candidate config outright instead of coercing it.
// Admin updates go through Validate before Sanitize so a bad payload
// never silently becomes a different schedule.
func Validate(candidate Config) error {
	if _, ok := ParseDate(candidate.Week1StartDate); !ok {
		return fmt.Errorf("%w: week1StartDate is required (YYYY-MM-DD)", ErrValidation)
	}
	if candidate.TestDayOfWeek < 0 || candidate.TestDayOfWeek > 6 {
		return fmt.Errorf("%w: testDayOfWeek must be between 0 and 6", ErrValidation)
	}
	if candidate.WindowStartHour < 0 || candidate.WindowStartHour > 23 ||
		candidate.WindowEndHour < 0 || candidate.WindowEndHour > 23 ||
		candidate.WindowStartMinute < 0 || candidate.WindowStartMinute > 59 ||
		candidate.WindowEndMinute < 0 || candidate.WindowEndMinute > 59 {
		return fmt.Errorf("%w: window start/end time is invalid", ErrValidation)
	}

	startTotal := candidate.WindowStartHour*60 + candidate.WindowStartMinute
	endTotal := candidate.WindowEndHour*60 + candidate.WindowEndMinute
	if startTotal >= endTotal {
		return fmt.Errorf("%w: window end time must be later than start time", ErrValidation)
	}
	return nil
}
