package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		// Missing file is fine: defaults plus environment still apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	// Empty defaults register the keys so BOT_TELEGRAM_TOKEN and
	// BOT_CRYPTO_KEY are visible to Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("crypto.key", "")

	v.SetDefault("database.path", "blinkobot.db")

	v.SetDefault("blinko.base_url", "https://blinko.example.com/api/v1")
	v.SetDefault("blinko.write_timeout", 30*time.Second)
	v.SetDefault("blinko.validate_timeout", 10*time.Second)
	v.SetDefault("blinko.insecure_skip_verify", false)

	v.SetDefault("scheduler.correlation_max_age_days", 90)

	v.SetDefault("messages.welcome",
		"Welcome! I relay notes to your Blinko server.\n"+
			"1. Get your Blinko API token\n"+
			"2. Send /configure <token>\n"+
			"3. Save notes with /note or /quick\n"+
			"Tip: reply to my confirmations to update a note.")
	v.SetDefault("messages.help",
		"Commands:\n"+
			"/configure <token> - set your Blinko API token\n"+
			"/note <text> - save a note\n"+
			"/quick <text> - save a quick note\n"+
			"/status - show configuration\n"+
			"/reset - remove stored token\n"+
			"Reply to one of my confirmations with new text to update that note.")
	v.SetDefault("messages.provide_token", "Please provide your Blinko API token: /configure <token>")
	v.SetDefault("messages.token_too_short", "That token looks too short. Please check it and try again.")
	v.SetDefault("messages.validating", "Testing your token...")
	v.SetDefault("messages.configure_success", "Configuration successful! Your token is verified and stored. Try /note <text>.")
	v.SetDefault("messages.invalid_token", "Invalid token. Please check that it was copied correctly and has not expired, then /configure again.")
	v.SetDefault("messages.connection_error", "Could not reach the Blinko server. Please check the server URL and try again.")
	v.SetDefault("messages.not_configured", "No token configured. Use /configure <token> to get started.")
	v.SetDefault("messages.reconfigure_needed", "Your stored token can no longer be read. Please /configure again.")
	v.SetDefault("messages.provide_content", "Please provide some content, e.g. /note Remember to call the dentist")
	v.SetDefault("messages.empty_content", "Content cannot be empty.")
	v.SetDefault("messages.note_saved", "Saved %s%s!\n\n%s")
	v.SetDefault("messages.note_updated", "Updated %s!\n\n%s")
	v.SetDefault("messages.timeout_error", "The request timed out. Please try again.")
	v.SetDefault("messages.api_error", "The Blinko server rejected the request (status %d).")
	v.SetDefault("messages.general_error", "An error occurred. Please try again later.")
	v.SetDefault("messages.reset_success", "Configuration removed. Use /configure <token> to set it up again.")
	v.SetDefault("messages.reset_nothing", "Nothing to remove; no configuration found.")
	v.SetDefault("messages.status_configured", "Configuration status\nUser: %s\nToken: %s\nServer: %s\nConfigured: %s")
	v.SetDefault("messages.status_unconfigured", "Not configured yet. Use /configure <token> to get started.")
}
