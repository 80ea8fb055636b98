package handlers

import (
	"log/slog"

	"github.com/edgard/blinkobot/internal/config"
	"github.com/edgard/blinkobot/internal/notes"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Notes  *notes.Service
}
