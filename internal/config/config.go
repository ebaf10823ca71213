package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	BackendURL      string
	MediaURL        string
	BackendTimeout  time.Duration
	CSRFSource      string
	CSRFToken       string
	SkipPolicy      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionSecret   string
	SessionDuration time.Duration
	LoginRateLimit  float64
	LoginBurst      int
	TemplatesPath   string
	MigrationsPath  string
	LogLevel        string
	LogFormat       string
	EmailFrom       string
	AWSRegion       string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8000"),
		MediaURL:        getEnv("MEDIA_URL", ""),
		BackendTimeout:  getDuration("BACKEND_TIMEOUT", 15*time.Second),
		CSRFSource:      getEnv("BACKEND_CSRF_SOURCE", "cookie"),
		CSRFToken:       getEnv("BACKEND_CSRF_TOKEN", ""),
		SkipPolicy:      getEnv("SKIP_POLICY", "local"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./vocabflow.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),
		LoginRateLimit:  getFloat("LOGIN_RATE_LIMIT", 0.2),
		LoginBurst:      getInt("LOGIN_BURST", 5),
		TemplatesPath:   getEnv("TEMPLATES_PATH", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		EmailFrom:       getEnv("EMAIL_FROM", ""),
		AWSRegion:       getEnv("AWS_REGION", ""),
	}
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_BURST must be positive")
	}
	switch c.DatabaseType {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_TYPE=%s", c.DatabaseType)
		}
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}
