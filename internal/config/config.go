package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string
	AppURL  string

	// Workshop backend
	BackendBaseURL string
	BackendTimeout time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT (optional, only used to verify backend-issued tokens)
	JWTSecret string

	// Session
	SessionCookie string
	SessionTTL    time.Duration

	// Reports
	ReportRoles   []string
	ExportFormats []string
	ExportLockTTL time.Duration
	ScreenIdleTTL time.Duration
	SweepSchedule string

	// UPI payments
	UPIPollInterval time.Duration
	UPIPollTimeout  time.Duration
	UPIStatusTTL    time.Duration

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int
	WorkerConcurrency  int
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env") // For when running from cmd/web or cmd/worker

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Workshop"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "3000"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),

		BackendBaseURL: strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8080/api"), "/"),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),

		SessionCookie: getEnv("SESSION_COOKIE", "workshop_session"),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		ReportRoles:   getEnvAsList("REPORT_ROLES", []string{"ADMIN", "MANAGER"}),
		ExportFormats: getEnvAsList("EXPORT_FORMATS", []string{"PDF", "EXCEL", "CSV"}),
		ExportLockTTL: getEnvAsDuration("EXPORT_LOCK_TTL", 2*time.Minute),
		ScreenIdleTTL: getEnvAsDuration("SCREEN_IDLE_TTL", 30*time.Minute),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 */5 * * * *"),

		UPIPollInterval: getEnvAsDuration("UPI_POLL_INTERVAL", 5*time.Second),
		UPIPollTimeout:  getEnvAsDuration("UPI_POLL_TIMEOUT", 10*time.Minute),
		UPIStatusTTL:    getEnvAsDuration("UPI_STATUS_TTL", time.Hour),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),
		WorkerConcurrency:  getEnvAsInt("WORKER_CONCURRENCY", 4),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}

	return cfg, nil
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
