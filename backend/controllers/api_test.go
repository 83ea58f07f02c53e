package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"aptiportal/backend/config"
	"aptiportal/backend/ledger"
	"aptiportal/backend/models"
	"aptiportal/backend/routes"
	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	app          *fiber.App
	db           *gorm.DB
	cfg          *config.Config
	store        *schedule.Store
	adminToken   string
	studentToken string
	studentUser  models.User
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	teardown()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "aptitude_portal_test",
		DBSSLMode:  "disable",
		JWTSecret:  "testsecret",
		ServerPort: "8080",
		// Early access keeps the submission tests independent of the
		// wall clock; the window gate itself is covered in the ledger
		// and schedule packages.
		AllowEarlyTests: true,

		Week1StartDate:    "2026-02-21",
		TestDayOfWeek:     6,
		WindowStartHour:   7,
		WindowStartMinute: 0,
		WindowEndHour:     23,
		WindowEndMinute:   59,
	}

	var err error
	db, err = utils.InitDB(cfg)
	if err != nil {
		panic(err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Reminder{},
		&models.ScheduleConfig{},
	); err != nil {
		panic(err)
	}

	store = schedule.NewStore(db, schedule.Config{
		Week1StartDate:    cfg.Week1StartDate,
		TestDayOfWeek:     cfg.TestDayOfWeek,
		WindowStartHour:   cfg.WindowStartHour,
		WindowStartMinute: cfg.WindowStartMinute,
		WindowEndHour:     cfg.WindowEndHour,
		WindowEndMinute:   cfg.WindowEndMinute,
	})
	engine := schedule.NewEngine(store)
	led := ledger.New(db, engine, cfg.AllowEarlyTests)

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg, store, engine, led)

	admin := models.User{Name: "Admin", Email: "admin@aptitude.test", Role: "admin"}
	db.Create(&admin)
	studentUser = models.User{Name: "Student", Email: "student@aptitude.test", Role: "student"}
	db.Create(&studentUser)

	adminToken, _ = utils.GenerateJWTToken(admin.ID, admin.Role, cfg)
	studentToken, _ = utils.GenerateJWTToken(studentUser.ID, studentUser.Role, cfg)
}

func teardown() {
	db.Migrator().DropTable(
		&models.User{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Reminder{},
		&models.ScheduleConfig{},
	)
}

func doRequest(t *testing.T, method, target, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestScheduleEndpoint(t *testing.T) {
	status, body := doRequest(t, "GET", "/api/schedule", "", nil)

	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "windowStatus")
	assert.Contains(t, body, "scheduledWeek")
	assert.Equal(t, "Saturday", body["testDayLabel"])
	assert.Equal(t, "7:00 AM", body["windowStartTime"])
}

func TestScheduleConfigUpdate(t *testing.T) {
	// A Thursday anchor must come back aligned to Saturday.
	payload := map[string]interface{}{
		"week1StartDate":    "2026-02-19",
		"testDayOfWeek":     6,
		"windowStartHour":   8,
		"windowStartMinute": 30,
		"windowEndHour":     20,
		"windowEndMinute":   0,
	}
	status, body := doRequest(t, "PUT", "/api/admin/schedule-config", adminToken, payload)
	require.Equal(t, fiber.StatusOK, status)

	saved := body["config"].(map[string]interface{})
	assert.Equal(t, "2026-02-21", saved["week1StartDate"])
	assert.Equal(t, float64(8), saved["windowStartHour"])
	assert.Contains(t, body, "schedule")

	status, fetched := doRequest(t, "GET", "/api/admin/schedule-config", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2026-02-21", fetched["week1StartDate"])

	// Restore the shared config for the other tests.
	payload["windowStartHour"] = 7
	payload["windowStartMinute"] = 0
	payload["windowEndHour"] = 23
	payload["windowEndMinute"] = 59
	status, _ = doRequest(t, "PUT", "/api/admin/schedule-config", adminToken, payload)
	require.Equal(t, fiber.StatusOK, status)
}

func TestScheduleConfigRejections(t *testing.T) {
	inverted := map[string]interface{}{
		"week1StartDate":    "2026-02-21",
		"testDayOfWeek":     6,
		"windowStartHour":   23,
		"windowStartMinute": 0,
		"windowEndHour":     7,
		"windowEndMinute":   0,
	}
	status, body := doRequest(t, "PUT", "/api/admin/schedule-config", adminToken, inverted)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["message"], "end time must be later")

	badDay := map[string]interface{}{
		"week1StartDate": "2026-02-21",
		"testDayOfWeek":  9,
		"windowEndHour":  23,
	}
	status, _ = doRequest(t, "PUT", "/api/admin/schedule-config", adminToken, badDay)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Students cannot touch the config.
	status, _ = doRequest(t, "PUT", "/api/admin/schedule-config", studentToken, inverted)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = doRequest(t, "PUT", "/api/admin/schedule-config", "", inverted)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func addQuestion(t *testing.T, week int) {
	t.Helper()
	payload := map[string]interface{}{
		"week":          week,
		"question":      fmt.Sprintf("Question for week %d", week),
		"options":       []string{"a", "b", "c", "d"},
		"correctAnswer": 1,
		"explanation":   "because",
	}
	status, _ := doRequest(t, "POST", "/api/admin/questions", adminToken, payload)
	require.Equal(t, fiber.StatusOK, status)
}

func TestSaveTestFlow(t *testing.T) {
	addQuestion(t, 3)
	addQuestion(t, 3)

	submit := map[string]interface{}{"week": 3, "score": 2, "totalQuestions": 2}
	status, body := doRequest(t, "POST", "/api/save-test", studentToken, submit)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Test saved successfully", body["message"])

	// Second submission covering the same bank is a conflict.
	status, body = doRequest(t, "POST", "/api/save-test", studentToken, submit)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["message"], "already attempted")

	status, attempted := doRequest(t, "GET", "/api/student/attempted?week=3", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, attempted["attempted"])
	assert.Equal(t, false, attempted["canRetry"])

	// The bank grows; the same student gets a catch-up attempt.
	addQuestion(t, 3)
	status, attempted = doRequest(t, "GET", "/api/student/attempted?week=3", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, attempted["attempted"])
	assert.Equal(t, true, attempted["canRetry"])
	assert.Equal(t, float64(3), attempted["availableQuestions"])

	submit["totalQuestions"] = 3
	submit["score"] = 3
	status, _ = doRequest(t, "POST", "/api/save-test", studentToken, submit)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doRequest(t, "POST", "/api/save-test", studentToken, map[string]interface{}{
		"week": 0, "score": 0, "totalQuestions": 0,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Admins are not students.
	status, _ = doRequest(t, "POST", "/api/save-test", adminToken, submit)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestQuestionCRUD(t *testing.T) {
	payload := map[string]interface{}{
		"week":          9,
		"question":      "What comes next: 2, 4, 8?",
		"options":       []string{"10", "12", "16", "24"},
		"correctAnswer": 2,
		"explanation":   "Doubling sequence",
	}
	status, _ := doRequest(t, "POST", "/api/admin/questions", adminToken, payload)
	require.Equal(t, fiber.StatusOK, status)

	// Missing options fail validation.
	invalid := map[string]interface{}{
		"week":          9,
		"question":      "Incomplete",
		"options":       []string{"only", "three", "options"},
		"correctAnswer": 0,
		"explanation":   "nope",
	}
	status, _ = doRequest(t, "POST", "/api/admin/questions", adminToken, invalid)
	assert.Equal(t, fiber.StatusBadRequest, status)

	req := httptest.NewRequest("GET", "/api/admin/questions?week=9", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var listed []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.NotEmpty(t, listed)
	assert.Equal(t, "W9-Q1", listed[0]["questionCode"])

	id := int(listed[0]["id"].(float64))
	payload["explanation"] = "Each term doubles"
	status, updated := doRequest(t, "PUT", fmt.Sprintf("/api/admin/questions/%d", id), adminToken, payload)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Question updated successfully", updated["message"])

	status, _ = doRequest(t, "PUT", "/api/admin/questions/999999", adminToken, payload)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doRequest(t, "DELETE", fmt.Sprintf("/api/admin/questions/%d", id), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = doRequest(t, "DELETE", fmt.Sprintf("/api/admin/questions/%d", id), adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestReminders(t *testing.T) {
	status, body := doRequest(t, "POST", "/api/admin/reminders/send", adminToken,
		map[string]interface{}{"week": 5})
	require.Equal(t, fiber.StatusOK, status)

	created := body["reminder"].(map[string]interface{})
	assert.Equal(t, float64(5), created["Week"])

	status, latest := doRequest(t, "GET", "/api/student/reminders/latest", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, latest["reminder"])
	fetched := latest["reminder"].(map[string]interface{})
	assert.Equal(t, float64(5), fetched["Week"])
	assert.Contains(t, fetched["Title"], "Week 5")

	// A newer reminder supersedes the old one for display.
	status, _ = doRequest(t, "POST", "/api/admin/reminders/send", adminToken,
		map[string]interface{}{"week": 6})
	require.Equal(t, fiber.StatusOK, status)
	_, latest = doRequest(t, "GET", "/api/student/reminders/latest", studentToken, nil)
	fetched = latest["reminder"].(map[string]interface{})
	assert.Equal(t, float64(6), fetched["Week"])
}

func TestStudentSummary(t *testing.T) {
	status, body := doRequest(t, "GET", "/api/student/summary", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	assert.Contains(t, body, "currentWeek")
	assert.Contains(t, body, "scheduledWeek")
	assert.Contains(t, body, "schedule")
	assert.Contains(t, body, "attempts")
}
