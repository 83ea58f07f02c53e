package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// TestAttempt is one row per submission. A student normally gets one
// row per week; a second row appears only when the question bank grew
// after a partial attempt. The most recent row is the current one.
type TestAttempt struct {
	gorm.Model
	UserEmail string `gorm:"index:idx_attempt_email_week"`
	Week      int    `gorm:"index:idx_attempt_email_week"`

	// Calendar metadata captured at submission time, so reports stay
	// stable even if the schedule config changes later.
	WeekStartDate string
	WeekStartDay  string
	WeekStartYear int

	Score          int
	TotalQuestions int
	Answers        pq.Int64Array `gorm:"type:bigint[]"`
}
