package models

import "gorm.io/gorm"

// ScheduleConfig is a singleton row (Key is always "main") holding the
// weekly test schedule. The schedule package caches it in memory and
// rewrites it atomically on admin updates.
type ScheduleConfig struct {
	gorm.Model
	Key               string `gorm:"unique;not null;default:main"`
	Week1StartDate    string `gorm:"not null"` // YYYY-MM-DD, aligned onto TestDayOfWeek
	TestDayOfWeek     int    `gorm:"not null"` // 0=Sunday .. 6=Saturday
	WindowStartHour   int
	WindowStartMinute int
	WindowEndHour     int
	WindowEndMinute   int
}
