// Package config manages application configuration from default values,
// config.yaml, and BOT_-prefixed environment variables.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Blinko    BlinkoConfig    `mapstructure:"blinko"`
	Crypto    CryptoConfig    `mapstructure:"crypto"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and runtime bot identity.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// BotInfo is populated at startup from GetMe, not from configuration.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// BlinkoConfig holds remote note service settings.
type BlinkoConfig struct {
	BaseURL            string        `mapstructure:"base_url" validate:"required,url"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"min=1s,max=5m"`
	ValidateTimeout    time.Duration `mapstructure:"validate_timeout" validate:"min=1s,max=5m"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// CryptoConfig holds the credential encryption key. When Key is empty the
// bot generates an ephemeral key and warns at startup.
type CryptoConfig struct {
	Key string `mapstructure:"key"`
}

// TaskConfig enables and schedules one background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig configures the optional background tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`

	// CorrelationMaxAgeDays bounds the correlation table for the
	// correlation_pruning task.
	CorrelationMaxAgeDays int `mapstructure:"correlation_max_age_days" validate:"min=1"`
}

// MessagesConfig holds all user-facing reply texts.
type MessagesConfig struct {
	Welcome            string `mapstructure:"welcome"`
	Help               string `mapstructure:"help"`
	ProvideToken       string `mapstructure:"provide_token"`
	TokenTooShort      string `mapstructure:"token_too_short"`
	Validating         string `mapstructure:"validating"`
	ConfigureSuccess   string `mapstructure:"configure_success"`
	InvalidToken       string `mapstructure:"invalid_token"`
	ConnectionError    string `mapstructure:"connection_error"`
	NotConfigured      string `mapstructure:"not_configured"`
	ReconfigureNeeded  string `mapstructure:"reconfigure_needed"`
	ProvideContent     string `mapstructure:"provide_content"`
	EmptyContent       string `mapstructure:"empty_content"`
	NoteSaved          string `mapstructure:"note_saved"`
	NoteUpdated        string `mapstructure:"note_updated"`
	TimeoutError       string `mapstructure:"timeout_error"`
	APIError           string `mapstructure:"api_error"`
	GeneralError       string `mapstructure:"general_error"`
	ResetSuccess       string `mapstructure:"reset_success"`
	ResetNothing       string `mapstructure:"reset_nothing"`
	StatusConfigured   string `mapstructure:"status_configured"`
	StatusUnconfigured string `mapstructure:"status_unconfigured"`
}
