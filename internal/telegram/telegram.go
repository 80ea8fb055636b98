// Package telegram wraps the go-telegram/bot client: construction, command
// registration, and command menu setup.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/blinkobot/internal/bot/handlers"
)

// NewTelegramBot creates the underlying Telegram bot client.
func NewTelegramBot(token string, log *slog.Logger, opts ...tgbot.Option) (*tgbot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot client created")
	return b, nil
}

// GetMe retrieves the bot's own identity for runtime use (reply detection).
func GetMe(ctx context.Context, b *tgbot.Bot) (*models.User, error) {
	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	return me, nil
}

// RegisterHandlers registers all command handlers with the bot and publishes
// the command menu.
func RegisterHandlers(ctx context.Context, b *tgbot.Bot, log *slog.Logger, cmdHandlers map[string]handlers.RegisteredHandler) error {
	commands := make([]models.BotCommand, 0, len(cmdHandlers))

	for command, h := range cmdHandlers {
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, h.Handler, h.Middleware...)
		log.Debug("Registered handler", "command", command, "pattern", h.Pattern)

		if h.Description != "" {
			commands = append(commands, models.BotCommand{
				Command:     strings.TrimPrefix(command, "/"),
				Description: h.Description,
			})
		}
	}

	sort.Slice(commands, func(i, j int) bool { return commands[i].Command < commands[j].Command })

	if _, err := b.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	log.Info("Telegram handlers registered", "count", len(cmdHandlers))
	return nil
}
