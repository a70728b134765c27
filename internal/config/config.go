package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port     string
	GinMode  string
	Env      string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SessionSecret string
	AdminSecret   string

	BcryptCost              int
	SessionLifetimeDays     int
	ResetTokenLifetimeHours int

	CORSAllowedOrigins string
}

func Load() *Config {
	// Best-effort: a missing .env file is fine in containers.
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "teamtodo"),
		DBPassword: getEnv("DB_PASSWORD", "teamtodo"),
		DBName:     getEnv("DB_NAME", "teamtodo"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		AdminSecret:   getEnv("ADMIN_SECRET", ""),

		BcryptCost:              getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		SessionLifetimeDays:     getEnvInt("SESSION_LIFETIME_DAYS", 30),
		ResetTokenLifetimeHours: getEnvInt("RESET_TOKEN_LIFETIME_HOURS", 2),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
