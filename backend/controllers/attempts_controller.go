package controllers

import (
	"errors"
	"strconv"
	"time"

	"aptiportal/backend/ledger"
	"aptiportal/backend/middleware"
	"aptiportal/backend/models"
	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AttemptsController struct {
	DB         *gorm.DB
	Ledger     *ledger.Ledger
	Engine     *schedule.Engine
	AllowEarly bool
}

func NewAttemptsController(db *gorm.DB, l *ledger.Ledger, engine *schedule.Engine, allowEarly bool) *AttemptsController {
	return &AttemptsController{DB: db, Ledger: l, Engine: engine, AllowEarly: allowEarly}
}

// SaveTest records one submission for the authenticated student. The
// ledger decides: window gate first, then the duplicate/catch-up rule.
func (ac *AttemptsController) SaveTest(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Week           int `json:"week"`
		Score          int `json:"score"`
		TotalQuestions int `json:"totalQuestions"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	_, err := ac.Ledger.RecordAttempt(user.Email, input.Week, input.Score, input.TotalQuestions, time.Now())
	if err != nil {
		var closed *ledger.WindowClosedError
		switch {
		case errors.Is(err, ledger.ErrInvalidWeek):
			return utils.BadRequest(c, err.Error())
		case errors.As(err, &closed):
			return utils.Forbidden(c, closed.Error())
		case errors.Is(err, ledger.ErrAlreadyAttempted):
			return utils.Conflict(c, "Test already attempted")
		default:
			return utils.InternalServerError(c, "Error saving test")
		}
	}

	return c.JSON(fiber.Map{"message": "Test saved successfully"})
}

// Attempted answers whether the student has already covered the week,
// and whether the question bank grew enough to allow a catch-up.
func (ac *AttemptsController) Attempted(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	week, err := strconv.Atoi(c.Query("week"))
	if err != nil || week < 1 {
		return utils.BadRequest(c, "Week is required")
	}

	status, err := ac.Ledger.Status(user.Email, week)
	if err != nil {
		return utils.InternalServerError(c, "Failed to check attempt status")
	}
	return c.JSON(status)
}

func (ac *AttemptsController) Attempts(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	history, err := ac.Ledger.History(user.Email)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch attempts")
	}
	return c.JSON(history)
}

// Summary gives the student dashboard its numbers: which week is
// currently takeable (zero when none), plus attempt counters.
func (ac *AttemptsController) Summary(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var attempts []models.TestAttempt
	if err := ac.DB.Where("user_email = ?", user.Email).Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch student summary")
	}

	var publishedWeeks []int
	if err := ac.DB.Model(&models.Question{}).
		Distinct("week").Where("week > 0").Pluck("week", &publishedWeeks).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch student summary")
	}

	bestScore, lastWeek := 0, 0
	for _, a := range attempts {
		if a.Score > bestScore {
			bestScore = a.Score
		}
		if a.Week > lastWeek {
			lastWeek = a.Week
		}
	}

	highestPublished := 0
	for _, week := range publishedWeeks {
		if week > highestPublished {
			highestPublished = week
		}
	}

	snap := ac.Engine.Snapshot(time.Now())
	currentWeek := currentTakeableWeek(snap, highestPublished, ac.AllowEarly)
	currentInfo := ac.Engine.WeekInfo(currentWeek)

	response := fiber.Map{
		"currentWeek":   currentWeek,
		"scheduledWeek": snap.ScheduledWeek,
		"weekStartDate": nil,
		"weekStartDay":  nil,
		"weekStartYear": nil,
		"schedule":      snap,
		"bestScore":     bestScore,
		"attempts":      len(attempts),
		"lastWeek":      lastWeek,
	}
	if currentInfo.Scheduled() {
		response["weekStartDate"] = currentInfo.WeekStartDate
		response["weekStartDay"] = currentInfo.WeekStartDay
		response["weekStartYear"] = currentInfo.WeekStartYear
	}
	return c.JSON(response)
}

// currentTakeableWeek is zero unless a test is actually takeable right
// now: the window must be open (or early access on), and questions for
// the week must exist. Never exceeds the highest published week.
func currentTakeableWeek(snap schedule.Info, highestPublished int, allowEarly bool) int {
	if highestPublished == 0 {
		return 0
	}
	if allowEarly {
		week := snap.ScheduledWeek
		if week < 1 {
			week = 1
		}
		return minInt(week, highestPublished)
	}
	if !snap.IsWindowOpen {
		return 0
	}
	return minInt(snap.ScheduledWeek, highestPublished)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
