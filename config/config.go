package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env when GO_ENV is unset or development.
// A missing .env file is not an error.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV string

	// Database
	DATABASE_URL string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string

	// HTTP
	PORT                int
	REQUEST_TIMEOUT     time.Duration
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	RATE_LIMIT_WINDOW   time.Duration

	// JWT
	JWT_SECRET string
	JWT_ISSUER string
	JWT_EXPIRY time.Duration

	// Redis (optional, enables login lockout)
	REDIS_URL string

	// File storage
	UPLOAD_DIR         string
	STORAGE_BACKEND    string
	DO_SPACES_KEY      string
	DO_SPACES_SECRET   string
	DO_SPACES_BUCKET   string
	DO_SPACES_REGION   string
	DO_SPACES_ENDPOINT string

	// Admin bootstrap
	ADMIN_USERNAME      string
	ADMIN_PASSWORD_HASH string

	CRON_ENABLED     bool
	SEED_SAMPLE_DATA bool
}

func Get() (*EnvironmentVariable, error) {
	goEnv := os.Getenv("GO_ENV")

	env := &EnvironmentVariable{
		GO_ENV: goEnv,

		DATABASE_URL: os.Getenv("DATABASE_URL"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getenv("DB_HOST", "localhost"),
		DB_PORT:      getenv("DB_PORT", "5432"),
		DB_SSL_MODE:  SSLMode(goEnv, os.Getenv("DB_SSL_MODE")),

		PORT:                getenvInt("PORT", 5000),
		REQUEST_TIMEOUT:     getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ALLOWED_ORIGINS:     getenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5000"),
		RATE_LIMIT_REQUESTS: getenvInt("RATE_LIMIT_REQUESTS", 300),
		RATE_LIMIT_WINDOW:   getenvDuration("RATE_LIMIT_WINDOW", time.Minute),

		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getenv("JWT_ISSUER", "student-portal"),
		JWT_EXPIRY: getenvDuration("JWT_EXPIRY", 24*time.Hour),

		REDIS_URL: os.Getenv("REDIS_URL"),

		UPLOAD_DIR:         getenv("UPLOAD_DIR", "uploads"),
		STORAGE_BACKEND:    getenv("STORAGE_BACKEND", "local"),
		DO_SPACES_KEY:      os.Getenv("DO_SPACES_KEY"),
		DO_SPACES_SECRET:   os.Getenv("DO_SPACES_SECRET"),
		DO_SPACES_BUCKET:   os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:   os.Getenv("DO_SPACES_REGION"),
		DO_SPACES_ENDPOINT: os.Getenv("DO_SPACES_ENDPOINT"),

		ADMIN_USERNAME:      getenv("ADMIN_USERNAME", "admin"),
		ADMIN_PASSWORD_HASH: os.Getenv("ADMIN_PASSWORD_HASH"),

		CRON_ENABLED:     getenvBool("CRON_ENABLED", true),
		SEED_SAMPLE_DATA: getenvBool("SEED_SAMPLE_DATA", false),
	}

	if env.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}

	return env, nil
}

// IsProduction reports whether GO_ENV is production.
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from DB_* variables.
func (e *EnvironmentVariable) DSN() string {
	if e.DATABASE_URL != "" {
		return e.DATABASE_URL
	}

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		e.DB_HOST,
		e.DB_USER_NAME,
		e.DB_PASSWORD,
		e.DB_NAME,
		e.DB_PORT,
		e.DB_SSL_MODE,
	)
}

// SSLMode picks the postgres sslmode: an explicit override wins, production requires TLS.
func SSLMode(goEnv, override string) string {
	if override != "" {
		return override
	}
	if goEnv == "production" {
		return "require"
	}
	return "disable"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
