package controllers

import (
	"errors"
	"time"

	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ScheduleController struct {
	Store  *schedule.Store
	Engine *schedule.Engine
}

func NewScheduleController(store *schedule.Store, engine *schedule.Engine) *ScheduleController {
	return &ScheduleController{Store: store, Engine: engine}
}

// GetSchedule returns the current window state, computed fresh from
// wall-clock time.
func (sc *ScheduleController) GetSchedule(c *fiber.Ctx) error {
	return c.JSON(sc.Engine.Snapshot(time.Now()))
}

func (sc *ScheduleController) GetConfig(c *fiber.Ctx) error {
	return c.JSON(sc.Store.Get())
}

// UpdateConfig validates and applies an admin schedule update. All
// fields are re-validated together; nothing is applied on rejection.
func (sc *ScheduleController) UpdateConfig(c *fiber.Ctx) error {
	var input schedule.Config
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	next, err := sc.Store.Save(input)
	if err != nil {
		if errors.Is(err, schedule.ErrValidation) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalServerError(c, "Failed to update schedule config")
	}

	return c.JSON(fiber.Map{
		"message":  "Schedule config updated",
		"config":   next,
		"schedule": sc.Engine.Snapshot(time.Now()),
	})
}
