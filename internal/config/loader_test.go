package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/blinkobot/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
telegram:
  token: "123456:test-token"
logger:
  level: debug
blinko:
  base_url: "https://notes.example.org/api/v1"
  write_timeout: 45s
scheduler:
  tasks:
    correlation_pruning:
      enabled: true
      schedule: "0 3 * * *"
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("token: got %q", cfg.Telegram.Token)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Logger.Level)
	}
	if cfg.Blinko.BaseURL != "https://notes.example.org/api/v1" {
		t.Errorf("base url: got %q", cfg.Blinko.BaseURL)
	}
	if cfg.Blinko.WriteTimeout != 45*time.Second {
		t.Errorf("write timeout: got %v", cfg.Blinko.WriteTimeout)
	}

	// Unset keys fall back to defaults.
	if cfg.Blinko.ValidateTimeout != 10*time.Second {
		t.Errorf("validate timeout default: got %v", cfg.Blinko.ValidateTimeout)
	}
	if cfg.Database.Path != "blinkobot.db" {
		t.Errorf("database path default: got %q", cfg.Database.Path)
	}
	if cfg.Scheduler.CorrelationMaxAgeDays != 90 {
		t.Errorf("correlation max age default: got %d", cfg.Scheduler.CorrelationMaxAgeDays)
	}
	if cfg.Blinko.InsecureSkipVerify {
		t.Error("TLS verification must be enabled by default")
	}
	if cfg.Messages.Welcome == "" || cfg.Messages.GeneralError == "" {
		t.Error("message defaults must be populated")
	}

	task, ok := cfg.Scheduler.Tasks["correlation_pruning"]
	if !ok {
		t.Fatal("expected correlation_pruning task config")
	}
	if !task.Enabled || task.Schedule != "0 3 * * *" {
		t.Errorf("task config: got %+v", task)
	}
}

func TestLoadConfigMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:env-token")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Telegram.Token != "123456:env-token" {
		t.Errorf("token from environment: got %q", cfg.Telegram.Token)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("log level default: got %q", cfg.Logger.Level)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "missing telegram token",
			content: "logger:\n  level: info\n",
		},
		{
			name:    "invalid log level",
			content: "telegram:\n  token: \"123456:t\"\nlogger:\n  level: verbose\n",
		},
		{
			name:    "invalid base url",
			content: "telegram:\n  token: \"123456:t\"\nblinko:\n  base_url: \"not a url\"\n",
		},
		{
			name:    "write timeout out of range",
			content: "telegram:\n  token: \"123456:t\"\nblinko:\n  write_timeout: 10ms\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, tc.content)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
