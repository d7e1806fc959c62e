package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "8010")
	t.Setenv("QUESTIONS_DIR", "./questions")
	t.Setenv("MARKER_DIR", "/root")
	t.Setenv("LEDGER_DRIVER", "sqlite")
	// Unparseable values fall back to defaults.
	t.Setenv("QUIZ_TRIM_ANSWERS", "maybe")
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("DB_MAX_RETRIES", "three")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8010" {
		t.Errorf("expected default port 8010, got %q", cfg.Port)
	}
	if cfg.MarkerDir != "/root" {
		t.Errorf("expected marker dir /root, got %q", cfg.MarkerDir)
	}
	if !cfg.TrimAnswers {
		t.Error("expected answers to be trimmed by default")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS origin, got %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.Ledger.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Ledger.MaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("QUESTIONS_DIR", "/srv/questions")
	t.Setenv("MARKER_DIR", "/tmp/markers")
	t.Setenv("LEDGER_DRIVER", "none")
	t.Setenv("QUIZ_TRIM_ANSWERS", "off")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://lab.example.com, http://localhost:3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" || cfg.QuestionsDir != "/srv/questions" || cfg.MarkerDir != "/tmp/markers" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.TrimAnswers {
		t.Error("expected trimming disabled")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("unexpected origins: %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.Timeout.Shutdown != 3*time.Second {
		t.Errorf("expected 3s shutdown timeout, got %v", cfg.Timeout.Shutdown)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:         "8010",
			QuestionsDir: "q",
			MarkerDir:    "m",
			Ledger:       LedgerConfig{Driver: "sqlite", DBPath: "db", MaxRetries: 1},
			Timeout:      TimeoutConfig{Shutdown: time.Second},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := map[string]func(c *Config){
		"empty port":        func(c *Config) { c.Port = "" },
		"empty marker dir":  func(c *Config) { c.MarkerDir = "" },
		"unknown driver":    func(c *Config) { c.Ledger.Driver = "mysql" },
		"postgres no dsn":   func(c *Config) { c.Ledger.Driver = "postgres" },
		"zero retries":      func(c *Config) { c.Ledger.MaxRetries = 0 },
		"no shutdown grace": func(c *Config) { c.Timeout.Shutdown = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
