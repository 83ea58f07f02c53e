package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aptiportal/backend/middleware"
	"aptiportal/backend/models"
	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuestionsController struct {
	DB       *gorm.DB
	Engine   *schedule.Engine
	Validate *validator.Validate
}

func NewQuestionsController(db *gorm.DB, engine *schedule.Engine) *QuestionsController {
	return &QuestionsController{DB: db, Engine: engine, Validate: validator.New()}
}

type questionInput struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,gte=0,lte=3"`
	Explanation   string   `json:"explanation" validate:"required"`
	Week          int      `json:"week" validate:"required,gte=1"`
}

func (qc *QuestionsController) parseInput(c *fiber.Ctx) (*questionInput, error) {
	var input questionInput
	if err := c.BodyParser(&input); err != nil {
		return nil, errors.New("cannot parse JSON")
	}
	for i, option := range input.Options {
		input.Options[i] = strings.TrimSpace(option)
	}
	input.Question = strings.TrimSpace(input.Question)
	input.Explanation = strings.TrimSpace(input.Explanation)
	if err := qc.Validate.Struct(input); err != nil {
		return nil, errors.New("invalid question payload")
	}
	return &input, nil
}

func (qc *QuestionsController) AddQuestion(c *fiber.Ctx) error {
	input, err := qc.parseInput(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	question := models.Question{
		Week:          input.Week,
		Question:      input.Question,
		Options:       input.Options,
		CorrectAnswer: *input.CorrectAnswer,
		Explanation:   input.Explanation,
	}
	if err := qc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Failed to add question")
	}
	return c.JSON(fiber.Map{"message": "Question added successfully"})
}

// GetQuestions returns the published questions for one week.
func (qc *QuestionsController) GetQuestions(c *fiber.Ctx) error {
	week, err := strconv.Atoi(c.Query("week"))
	if err != nil {
		return utils.BadRequest(c, "Week is required")
	}

	var questions []models.Question
	if err := qc.DB.Where("week = ?", week).Order("created_at ASC").Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch questions")
	}
	return c.JSON(questions)
}

// AdminQuestions lists everything (or one week), stamped with per-week
// sequence codes like W3-Q2.
func (qc *QuestionsController) AdminQuestions(c *fiber.Ctx) error {
	query := qc.DB.Model(&models.Question{})
	if week, err := strconv.Atoi(c.Query("week")); err == nil && week > 0 {
		query = query.Where("week = ?", week)
	}

	var questions []models.Question
	if err := query.Order("week ASC, created_at ASC").Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch questions")
	}
	return c.JSON(qc.withSequence(questions))
}

func (qc *QuestionsController) UpdateQuestion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}
	input, err := qc.parseInput(c)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var question models.Question
	if err := qc.DB.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Failed to update question")
	}

	question.Question = input.Question
	question.Options = input.Options
	question.CorrectAnswer = *input.CorrectAnswer
	question.Explanation = input.Explanation
	question.Week = input.Week
	if err := qc.DB.Save(&question).Error; err != nil {
		return utils.InternalServerError(c, "Failed to update question")
	}

	return c.JSON(fiber.Map{"message": "Question updated successfully", "question": question})
}

func (qc *QuestionsController) DeleteQuestion(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	result := qc.DB.Unscoped().Delete(&models.Question{}, id)
	if result.Error != nil {
		return utils.InternalServerError(c, "Failed to delete question")
	}
	if result.RowsAffected == 0 {
		return utils.NotFound(c, "Question not found")
	}
	return c.JSON(fiber.Map{"message": "Question deleted successfully"})
}

// QuestionHistory shows the student the questions of weeks they have
// attempted, limited to what was published by their first attempt, so
// catch-up additions don't leak answers early.
func (qc *QuestionsController) QuestionHistory(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var attempts []models.TestAttempt
	if err := qc.DB.Where("user_email = ?", user.Email).
		Order("created_at ASC").Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch question history")
	}

	firstAttemptByWeek := map[int]int{}
	ordered := []models.TestAttempt{}
	for i, row := range attempts {
		if row.Week < 1 {
			continue
		}
		if _, seen := firstAttemptByWeek[row.Week]; !seen {
			firstAttemptByWeek[row.Week] = i
			ordered = append(ordered, row)
		}
	}
	if len(ordered) == 0 {
		return c.JSON([]fiber.Map{})
	}

	query := qc.DB.Model(&models.Question{})
	clauses := make([]string, 0, len(ordered))
	args := make([]interface{}, 0, len(ordered)*2)
	for _, row := range ordered {
		clauses = append(clauses, "(week = ? AND created_at <= ?)")
		args = append(args, row.Week, row.CreatedAt)
	}
	query = query.Where(strings.Join(clauses, " OR "), args...)

	var questions []models.Question
	if err := query.Order("week ASC, created_at ASC").Find(&questions).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch question history")
	}

	result := qc.withSequence(questions)
	for _, entry := range result {
		info := qc.Engine.WeekInfo(entry["week"].(int))
		entry["weekStartDate"] = info.WeekStartDate
		entry["weekStartDay"] = info.WeekStartDay
		entry["weekStartYear"] = info.WeekStartYear
	}
	return c.JSON(result)
}

// withSequence numbers questions within their week. Input must be
// ordered by week then creation time.
func (qc *QuestionsController) withSequence(questions []models.Question) []fiber.Map {
	totalsByWeek := map[int]int{}
	for _, q := range questions {
		totalsByWeek[q.Week]++
	}

	numberByWeek := map[int]int{}
	result := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		numberByWeek[q.Week]++
		number := numberByWeek[q.Week]
		result = append(result, fiber.Map{
			"id":                   q.ID,
			"week":                 q.Week,
			"question":             q.Question,
			"options":              q.Options,
			"correctAnswer":        q.CorrectAnswer,
			"explanation":          q.Explanation,
			"createdAt":            q.CreatedAt,
			"questionNumber":       number,
			"totalQuestionsInWeek": totalsByWeek[q.Week],
			"questionCode":         fmt.Sprintf("W%d-Q%d", q.Week, number),
		})
	}
	return result
}
