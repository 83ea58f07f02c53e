package main

import (
	"log"

	"aptiportal/backend/config"
	"aptiportal/backend/ledger"
	"aptiportal/backend/middleware"
	"aptiportal/backend/models"
	"aptiportal/backend/routes"
	"aptiportal/backend/schedule"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Reminder{},
		&models.ScheduleConfig{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	// Schedule: env defaults, then the persisted row if there is one
	store := schedule.NewStore(db, schedule.Config{
		Week1StartDate:    cfg.Week1StartDate,
		TestDayOfWeek:     cfg.TestDayOfWeek,
		WindowStartHour:   cfg.WindowStartHour,
		WindowStartMinute: cfg.WindowStartMinute,
		WindowEndHour:     cfg.WindowEndHour,
		WindowEndMinute:   cfg.WindowEndMinute,
	})
	if _, err := store.Load(); err != nil {
		log.Fatalf("Error loading schedule config: %v", err)
	}
	engine := schedule.NewEngine(store)
	led := ledger.New(db, engine, cfg.AllowEarlyTests)

	// Initialize logger
	logger := utils.InitLogger()
	if cfg.AllowEarlyTests {
		logger.Println("ALLOW_EARLY_TESTS is on: submission window is not enforced")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Aptitude Portal",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, store, engine, led)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
