package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	StoragePath    string
	StorageBaseURL string

	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	UnscreenAPIKey  string
	UnscreenBaseURL string

	WorkerCount      int
	JobPollInterval  time.Duration
	ImageTimeout     time.Duration
	VideoTimeout     time.Duration
	WatchdogSchedule string
	WatchdogGrace    time.Duration
	SweeperSchedule  string
	WebhookTimeout   time.Duration

	DBMaxConns int32

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Only DATABASE_URL is mandatory: the provider API
// keys are optional so the API process can run without egress credentials,
// while the worker logs a warning per unconfigured adapter.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		UnscreenAPIKey:  os.Getenv("UNSCREEN_API_KEY"),
		UnscreenBaseURL: getEnv("UNSCREEN_BASE_URL", "https://api.unscreen.com/v1.0"),

		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		JobPollInterval:  time.Second * time.Duration(getEnvInt("JOB_POLL_INTERVAL_SECONDS", 2)),
		ImageTimeout:     time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 120)),
		VideoTimeout:     time.Second * time.Duration(getEnvInt("VIDEO_TIMEOUT_SECONDS", 1800)),
		WatchdogSchedule: getEnv("WATCHDOG_SCHEDULE", "@every 1m"),
		WatchdogGrace:    time.Second * time.Duration(getEnvInt("WATCHDOG_GRACE_SECONDS", 180)),
		SweeperSchedule:  getEnv("SWEEPER_SCHEDULE", "@every 1m"),
		WebhookTimeout:   time.Second * time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 30)),

		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
