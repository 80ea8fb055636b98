// Package tasks implements the optional scheduled maintenance tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/blinkobot/internal/config"
	"github.com/edgard/blinkobot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
