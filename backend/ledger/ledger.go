package ledger

import (
	"errors"
	"fmt"
	"time"

	"aptiportal/backend/models"
	"aptiportal/backend/schedule"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyAttempted means the student already has an attempt
	// covering every question currently published for the week.
	ErrAlreadyAttempted = errors.New("test already attempted")

	// ErrInvalidWeek rejects week numbers below 1.
	ErrInvalidWeek = errors.New("valid week is required")
)

// WindowClosedError is returned when a submission lands outside the
// allowed window. The message names the weekday and time range so the
// student knows when to come back.
type WindowClosedError struct {
	Day       string
	StartTime string
	EndTime   string
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("Test submissions are allowed only on %s between %s and %s.",
		e.Day, e.StartTime, e.EndTime)
}

// Status answers "has this student attempted week N". CanRetry is true
// exactly when the question bank grew past the student's recorded
// attempt; Attempted is its negation once any attempt exists.
type Status struct {
	Attempted             bool `json:"attempted"`
	CanRetry              bool `json:"canRetry"`
	AttemptTotalQuestions int  `json:"attemptTotalQuestions"`
	AvailableQuestions    int  `json:"availableQuestions"`
}

// AttemptRecord is one ledger row shaped for API responses, with week
// metadata backfilled for legacy rows that predate the stamping.
type AttemptRecord struct {
	ID             uint      `json:"id"`
	Week           int       `json:"week"`
	WeekStartDate  string    `json:"weekStartDate"`
	WeekStartDay   string    `json:"weekStartDay"`
	WeekStartYear  int       `json:"weekStartYear"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Ledger enforces one productive attempt per student per week. The
// window gate runs first, then the catch-up rule against the question
// bank. allowEarly bypasses only the window gate.
type Ledger struct {
	db         *gorm.DB
	engine     *schedule.Engine
	allowEarly bool
}

func New(db *gorm.DB, engine *schedule.Engine, allowEarly bool) *Ledger {
	return &Ledger{db: db, engine: engine, allowEarly: allowEarly}
}

// SubmissionAllowed reports whether a submission for the week would
// pass the window gate at the given instant.
func (l *Ledger) SubmissionAllowed(week int, now time.Time) bool {
	if l.allowEarly {
		return true
	}
	return l.engine.WeekWindow(week).Contains(now)
}

// RecordAttempt validates, gates and persists one submission. The
// published-count and prior-attempt checks run inside one transaction
// with the insert; concurrent duplicates from the same student are
// still possible in principle but never leave a half-written row.
func (l *Ledger) RecordAttempt(email string, week, score, totalQuestions int, now time.Time) (*models.TestAttempt, error) {
	if week < 1 {
		return nil, ErrInvalidWeek
	}

	window := l.engine.WeekWindow(week)
	if !l.allowEarly && !window.Contains(now) {
		snap := l.engine.Snapshot(now)
		return nil, &WindowClosedError{
			Day:       window.WeekStartDay,
			StartTime: snap.WindowStartTime,
			EndTime:   snap.WindowEndTime,
		}
	}

	attempt := models.TestAttempt{
		UserEmail:      email,
		Week:           week,
		WeekStartDate:  window.WeekStartDate,
		WeekStartDay:   window.WeekStartDay,
		WeekStartYear:  window.WeekStartYear,
		Score:          score,
		TotalQuestions: totalQuestions,
		Answers:        pq.Int64Array{},
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		published, err := questionCount(tx, week)
		if err != nil {
			return err
		}

		var prior models.TestAttempt
		err = tx.Where("user_email = ? AND week = ?", email, week).
			Order("created_at DESC").First(&prior).Error
		if err == nil && prior.TotalQuestions >= published {
			return ErrAlreadyAttempted
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&attempt).Error
	})
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Status inspects the latest attempt for (student, week) against the
// published question count. No attempt means both flags are false.
func (l *Ledger) Status(email string, week int) (Status, error) {
	var latest models.TestAttempt
	err := l.db.Where("user_email = ? AND week = ?", email, week).
		Order("created_at DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}

	published, err := questionCount(l.db, week)
	if err != nil {
		return Status{}, err
	}

	canRetry := published > latest.TotalQuestions
	return Status{
		Attempted:             !canRetry,
		CanRetry:              canRetry,
		AttemptTotalQuestions: latest.TotalQuestions,
		AvailableQuestions:    published,
	}, nil
}

// History returns the student's attempts, newest first. Rows written
// before week metadata was stamped get it recomputed from the engine.
func (l *Ledger) History(email string) ([]AttemptRecord, error) {
	var attempts []models.TestAttempt
	err := l.db.Where("user_email = ?", email).
		Order("created_at DESC").Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	records := make([]AttemptRecord, 0, len(attempts))
	for _, row := range attempts {
		record := AttemptRecord{
			ID:             row.ID,
			Week:           row.Week,
			WeekStartDate:  row.WeekStartDate,
			WeekStartDay:   row.WeekStartDay,
			WeekStartYear:  row.WeekStartYear,
			Score:          row.Score,
			TotalQuestions: row.TotalQuestions,
			CreatedAt:      row.CreatedAt,
		}
		if record.WeekStartDate == "" {
			info := l.engine.WeekInfo(row.Week)
			record.WeekStartDate = info.WeekStartDate
			record.WeekStartDay = info.WeekStartDay
			record.WeekStartYear = info.WeekStartYear
		}
		records = append(records, record)
	}
	return records, nil
}

func questionCount(db *gorm.DB, week int) (int, error) {
	var count int64
	err := db.Model(&models.Question{}).Where("week = ?", week).Count(&count).Error
	return int(count), err
}
