package routes

import (
	"aptiportal/backend/config"
	"aptiportal/backend/controllers"
	"aptiportal/backend/ledger"
	"aptiportal/backend/middleware"
	"aptiportal/backend/schedule"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config,
	store *schedule.Store, engine *schedule.Engine, led *ledger.Ledger) {

	authMiddleware := middleware.AuthMiddleware(cfg)
	studentOnly := middleware.RequireRole(db, cfg, "student")
	adminOnly := middleware.RequireRole(db, cfg, "admin")

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Aptitude API is running")
	})

	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/google", authController.GoogleSignIn)

	scheduleController := controllers.NewScheduleController(store, engine)
	app.Get("/api/schedule", scheduleController.GetSchedule)

	attemptsController := controllers.NewAttemptsController(db, led, engine, cfg.AllowEarlyTests)
	app.Post("/api/save-test", studentOnly, attemptsController.SaveTest)

	questionsController := controllers.NewQuestionsController(db, engine)
	app.Get("/api/questions", authMiddleware, questionsController.GetQuestions)

	remindersController := controllers.NewRemindersController(db, engine)

	student := app.Group("/api/student", studentOnly)
	student.Get("/attempted", attemptsController.Attempted)
	student.Get("/attempts", attemptsController.Attempts)
	student.Get("/summary", attemptsController.Summary)
	student.Get("/questions-history", questionsController.QuestionHistory)
	student.Get("/reminders/latest", remindersController.Latest)

	admin := app.Group("/api/admin", adminOnly)
	admin.Get("/schedule-config", scheduleController.GetConfig)
	admin.Put("/schedule-config", scheduleController.UpdateConfig)
	admin.Post("/reminders/send", remindersController.Send)
	admin.Post("/questions", questionsController.AddQuestion)
	admin.Get("/questions", questionsController.AdminQuestions)
	admin.Put("/questions/:id", questionsController.UpdateQuestion)
	admin.Delete("/questions/:id", questionsController.DeleteQuestion)
}
