package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	JWTSecret  string
	ServerPort string

	GoogleClientID string
	AdminDomain    string

	// AllowEarlyTests disables the submission window gate entirely.
	// It does not change what the schedule endpoint reports.
	AllowEarlyTests bool

	// Seed values for the schedule config before the persisted row
	// (if any) is loaded.
	Week1StartDate    string
	TestDayOfWeek     int
	WindowStartHour   int
	WindowStartMinute int
	WindowEndHour     int
	WindowEndMinute   int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "aptitude_portal"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		ServerPort: getEnv("SERVER_PORT", "5000"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		AdminDomain:    getEnv("ADMIN_EMAIL_DOMAIN", "agmrcet.edu.in"),

		AllowEarlyTests: getEnvBool("ALLOW_EARLY_TESTS", false),

		Week1StartDate:    getEnv("WEEK1_START_DATE", "2026-02-21"),
		TestDayOfWeek:     getEnvInt("TEST_DAY_OF_WEEK", 6),
		WindowStartHour:   getEnvInt("TEST_WINDOW_START_HOUR", 7),
		WindowStartMinute: getEnvInt("TEST_WINDOW_START_MINUTE", 0),
		WindowEndHour:     getEnvInt("TEST_WINDOW_END_HOUR", 23),
		WindowEndMinute:   getEnvInt("TEST_WINDOW_END_MINUTE", 59),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return strings.EqualFold(value, "true")
	}
	return defaultValue
}
