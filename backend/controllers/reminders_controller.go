package controllers

import (
	"errors"
	"fmt"
	"time"

	"aptiportal/backend/models"
	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RemindersController struct {
	DB     *gorm.DB
	Engine *schedule.Engine
}

func NewRemindersController(db *gorm.DB, engine *schedule.Engine) *RemindersController {
	return &RemindersController{DB: db, Engine: engine}
}

// Send creates an active reminder for a week. The week defaults to the
// next one a student can still take; title and message are templated
// from the engine's current labels.
func (rc *RemindersController) Send(c *fiber.Ctx) error {
	var input struct {
		Week int `json:"week"`
	}
	// Body is optional.
	_ = c.BodyParser(&input)

	snap := rc.Engine.Snapshot(time.Now())
	week := input.Week
	if week < 1 {
		week = snap.UpcomingWeek
	}
	if week < 1 {
		week = snap.ScheduledWeek
	}
	if week < 1 {
		week = 1
	}

	reminder := models.Reminder{
		Week:  week,
		Title: fmt.Sprintf("Week %d Test Reminder", week),
		Message: fmt.Sprintf("Week %d test is scheduled on %s at %s. Please attempt on time.",
			week, snap.TestDayLabel, snap.WindowStartTime),
		Active: true,
	}
	if err := rc.DB.Create(&reminder).Error; err != nil {
		return utils.InternalServerError(c, "Failed to send reminder")
	}

	return c.JSON(fiber.Map{
		"message":  "Reminder sent successfully",
		"reminder": reminder,
	})
}

// Latest returns the most recently created active reminder, or null.
// Dismissal is client-local; the server never deactivates rows here.
func (rc *RemindersController) Latest(c *fiber.Ctx) error {
	var reminder models.Reminder
	err := rc.DB.Where("active = ?", true).Order("created_at DESC").First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(fiber.Map{"reminder": nil})
	}
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch reminder")
	}
	return c.JSON(fiber.Map{"reminder": reminder})
}
