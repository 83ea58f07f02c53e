package schedule

import (
	"math"
	"strconv"
	"time"
)

// Window states reported by Snapshot.
const (
	StatusNotStarted = "not_started"
	StatusPreWindow  = "pre_window"
	StatusLive       = "live"
	StatusClosed     = "closed"
)

// WeekInfo is the calendar identity of a test week. Week 0 is the
// "no scheduled week" sentinel; check Scheduled() instead of doing
// arithmetic on the number.
type WeekInfo struct {
	Week          int    `json:"week"`
	WeekStartDate string `json:"weekStartDate"`
	WeekStartDay  string `json:"weekStartDay"`
	WeekStartYear int    `json:"weekStartYear"`
	WeekDisplay   string `json:"weekDisplay"`
}

func (w WeekInfo) Scheduled() bool {
	return w.Week > 0
}

// WeekWindow is a week plus its concrete submission window bounds.
// The end bound includes the whole last minute of the window.
type WeekWindow struct {
	WeekInfo
	WindowStart         time.Time `json:"-"`
	WindowEnd           time.Time `json:"-"`
	WindowStartDateTime string    `json:"windowStartDateTime"`
	WindowEndDateTime   string    `json:"windowEndDateTime"`
}

// Contains reports whether now falls inside the window, boundaries
// included.
func (w WeekWindow) Contains(now time.Time) bool {
	return w.Scheduled() && !now.Before(w.WindowStart) && !now.After(w.WindowEnd)
}

// Info is the full schedule state at a point in time, shaped for the
// /api/schedule response.
type Info struct {
	HasStarted   bool   `json:"hasStarted"`
	IsWindowOpen bool   `json:"isWindowOpen"`
	WindowStatus string `json:"windowStatus"`

	TodayDate      string `json:"todayDate"`
	TodayDay       string `json:"todayDay"`
	Week1StartDate string `json:"week1StartDate"`
	Week1StartDay  string `json:"week1StartDay"`

	ScheduledWeek  int `json:"scheduledWeek"`
	ActiveWeek     int `json:"activeWeek"`
	UpcomingWeek   int `json:"upcomingWeek"`
	DaysUntilStart int `json:"daysUntilStart"`

	ActiveWeekDate            *string `json:"activeWeekDate"`
	NextWeekDate              string  `json:"nextWeekDate"`
	ActiveWindowStartDateTime *string `json:"activeWindowStartDateTime,omitempty"`
	ActiveWindowEndDateTime   *string `json:"activeWindowEndDateTime,omitempty"`
	NextWindowStartDateTime   string  `json:"nextWindowStartDateTime"`

	WindowStartTime   string `json:"windowStartTime"`
	WindowEndTime     string `json:"windowEndTime"`
	TestDayOfWeek     int    `json:"testDayOfWeek"`
	TestDayLabel      string `json:"testDayLabel"`
	WindowStartHour   int    `json:"windowStartHour"`
	WindowStartMinute int    `json:"windowStartMinute"`
	WindowEndHour     int    `json:"windowEndHour"`
	WindowEndMinute   int    `json:"windowEndMinute"`
}

// ConfigSource is what the engine needs from the config store. Tests
// substitute a fixed config.
type ConfigSource interface {
	Get() Config
}

// Engine derives week numbers and window state from the config and a
// timestamp. It is pure: no I/O beyond ConfigSource.Get, no clock of
// its own. All arithmetic is in the process-local time zone.
type Engine struct {
	source ConfigSource
}

func NewEngine(source ConfigSource) *Engine {
	return &Engine{source: source}
}

// config re-sanitizes on every read. For a config that went through
// the store this is a no-op; it guards against manually seeded rows.
func (e *Engine) config() Config {
	return Sanitize(e.source.Get(), baseConfig)
}

func week1Start(cfg Config) time.Time {
	anchor, _ := ParseDate(cfg.Week1StartDate)
	return anchor
}

// WeekInfo returns the calendar identity of week N, starting at the
// anchor date and stepping 7 days per week. Week numbers below 1 give
// the sentinel.
func (e *Engine) WeekInfo(week int) WeekInfo {
	if week < 1 {
		return WeekInfo{Week: 0, WeekDisplay: "Week 0"}
	}
	weekDate := week1Start(e.config()).AddDate(0, 0, (week-1)*7)
	return weekInfoFor(week, weekDate)
}

func weekInfoFor(week int, weekDate time.Time) WeekInfo {
	startDate := isoDate(weekDate)
	startDay := weekDate.Weekday().String()
	return WeekInfo{
		Week:          week,
		WeekStartDate: startDate,
		WeekStartDay:  startDay,
		WeekStartYear: weekDate.Year(),
		WeekDisplay:   "Week " + strconv.Itoa(week) + " - " + startDay + ", " + startDate,
	}
}

// WeekWindow returns week N's submission window. The week date is
// realigned forward onto the test day first; with a normalized anchor
// that is a no-op.
func (e *Engine) WeekWindow(week int) WeekWindow {
	info := e.WeekInfo(week)
	if !info.Scheduled() {
		return WeekWindow{WeekInfo: info}
	}

	cfg := e.config()
	base, _ := ParseDate(info.WeekStartDate)
	base = alignToDay(base, cfg.TestDayOfWeek)

	start := time.Date(base.Year(), base.Month(), base.Day(),
		cfg.WindowStartHour, cfg.WindowStartMinute, 0, 0, time.Local)
	end := time.Date(base.Year(), base.Month(), base.Day(),
		cfg.WindowEndHour, cfg.WindowEndMinute, 59, 999_000_000, time.Local)

	return WeekWindow{
		WeekInfo:            weekInfoFor(week, base),
		WindowStart:         start,
		WindowEnd:           end,
		WindowStartDateTime: isoDateTime(start),
		WindowEndDateTime:   isoDateTime(end),
	}
}

// Snapshot computes the schedule state machine for the given instant:
// not_started before the anchor, otherwise pre_window, live or closed
// within the 7-day cycle that contains today. Nothing is persisted;
// config changes take effect on the next call.
func (e *Engine) Snapshot(now time.Time) Info {
	cfg := e.config()
	today := dateOnly(now)
	week1 := week1Start(cfg)
	diffDays := daysBetween(week1, today)

	info := Info{
		TodayDate:         isoDate(today),
		TodayDay:          today.Weekday().String(),
		Week1StartDate:    isoDate(week1),
		Week1StartDay:     week1.Weekday().String(),
		WindowStartTime:   timeLabel(cfg.WindowStartHour, cfg.WindowStartMinute),
		WindowEndTime:     timeLabel(cfg.WindowEndHour, cfg.WindowEndMinute),
		TestDayOfWeek:     cfg.TestDayOfWeek,
		TestDayLabel:      time.Weekday(cfg.TestDayOfWeek).String(),
		WindowStartHour:   cfg.WindowStartHour,
		WindowStartMinute: cfg.WindowStartMinute,
		WindowEndHour:     cfg.WindowEndHour,
		WindowEndMinute:   cfg.WindowEndMinute,
	}

	if diffDays < 0 {
		week1Window := e.WeekWindow(1)
		info.HasStarted = false
		info.WindowStatus = StatusNotStarted
		info.ScheduledWeek = 0
		info.ActiveWeek = 0
		info.UpcomingWeek = 1
		info.DaysUntilStart = daysUntil(now, week1Window.WindowStart)
		info.NextWeekDate = isoDate(week1)
		info.NextWindowStartDateTime = week1Window.WindowStartDateTime
		return info
	}

	scheduledWeek := diffDays/7 + 1
	scheduledWindow := e.WeekWindow(scheduledWeek)

	beforeStart := now.Before(scheduledWindow.WindowStart)
	afterEnd := now.After(scheduledWindow.WindowEnd)
	open := !beforeStart && !afterEnd

	info.HasStarted = true
	info.IsWindowOpen = open
	info.ScheduledWeek = scheduledWeek
	switch {
	case open:
		info.WindowStatus = StatusLive
		info.ActiveWeek = scheduledWeek
	case beforeStart:
		info.WindowStatus = StatusPreWindow
	default:
		info.WindowStatus = StatusClosed
	}

	if beforeStart {
		info.UpcomingWeek = scheduledWeek
	} else {
		info.UpcomingWeek = scheduledWeek + 1
	}
	upcomingWindow := e.WeekWindow(info.UpcomingWeek)
	info.DaysUntilStart = daysUntil(now, upcomingWindow.WindowStart)
	info.NextWeekDate = upcomingWindow.WeekStartDate
	info.NextWindowStartDateTime = upcomingWindow.WindowStartDateTime

	if open {
		info.ActiveWeekDate = &scheduledWindow.WeekStartDate
		info.ActiveWindowStartDateTime = &scheduledWindow.WindowStartDateTime
		info.ActiveWindowEndDateTime = &scheduledWindow.WindowEndDateTime
	}
	return info
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// daysBetween counts whole calendar days from a to b. Both arguments
// are local midnights; rounding absorbs DST offsets.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// daysUntil is the ceiling of the distance to the target in days,
// floored at zero.
func daysUntil(now, target time.Time) int {
	days := int(math.Ceil(target.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func timeLabel(hour, minute int) string {
	probe := time.Date(2026, time.January, 1, hour, minute, 0, 0, time.Local)
	return probe.Format("3:04 PM")
}
