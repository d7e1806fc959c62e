// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	FrontendURL  string
	QuestionsDir string
	MarkerDir    string
	TrimAnswers  bool
	CORSOrigins  []string
	LogLevel     slog.Level
	Ledger       LedgerConfig
	Timeout      TimeoutConfig
}

// LedgerConfig selects where completion records are kept.
type LedgerConfig struct {
	Driver         string // sqlite, postgres or none
	DBPath         string
	DatabaseURL    string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// TimeoutConfig holds HTTP server timeouts.
type TimeoutConfig struct {
	Read        time.Duration
	Write       time.Duration
	Idle        time.Duration
	Request     time.Duration
	Shutdown    time.Duration
	HealthCheck time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8010"),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
		QuestionsDir: getEnv("QUESTIONS_DIR", "./questions"),
		MarkerDir:    getEnv("MARKER_DIR", "/root"),
		TrimAnswers:  getEnvBool("QUIZ_TRIM_ANSWERS", true),
		CORSOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:     getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		Ledger: LedgerConfig{
			Driver:         strings.ToLower(getEnv("LEDGER_DRIVER", "sqlite")),
			DBPath:         getEnv("DB_PATH", "./data/quiz.db"),
			DatabaseURL:    getEnv("DATABASE_URL", ""),
			MaxRetries:     getEnvInt("DB_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvDuration("DB_RETRY_BASE_DELAY", 50*time.Millisecond),
		},
		Timeout: TimeoutConfig{
			Read:        getEnvDuration("READ_TIMEOUT", 15*time.Second),
			Write:       getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
			Idle:        getEnvDuration("IDLE_TIMEOUT", 120*time.Second),
			Request:     getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
			Shutdown:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.QuestionsDir == "" {
		return fmt.Errorf("QUESTIONS_DIR cannot be empty")
	}
	if c.MarkerDir == "" {
		return fmt.Errorf("MARKER_DIR cannot be empty")
	}
	switch c.Ledger.Driver {
	case "sqlite":
		if c.Ledger.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when LEDGER_DRIVER=sqlite")
		}
	case "postgres":
		if c.Ledger.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL cannot be empty when LEDGER_DRIVER=postgres")
		}
	case "none":
	default:
		return fmt.Errorf("LEDGER_DRIVER must be sqlite, postgres or none, got %q", c.Ledger.Driver)
	}
	if c.Ledger.MaxRetries <= 0 {
		return fmt.Errorf("DB_MAX_RETRIES must be > 0")
	}
	if c.Timeout.Shutdown <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return lvl
}
