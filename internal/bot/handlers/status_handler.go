package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatusHandler returns a handler for the /status command. It shows the
// stored configuration and probes the credential against the remote service.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Status handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	msgs := &h.deps.Config.Messages

	summary, err := h.deps.Notes.Status(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load status", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, userMessage(msgs, err), log)
		return
	}
	if summary == nil {
		h.reply(ctx, b, chatID, msgs.StatusUnconfigured, log)
		return
	}

	tokenStatus := "active"
	if !summary.CredentialOK {
		tokenStatus = "invalid or expired"
	}
	baseURL := summary.BaseURL
	if baseURL == "" {
		baseURL = h.deps.Config.Blinko.BaseURL
	}

	text := fmt.Sprintf(msgs.StatusConfigured,
		summary.DisplayName,
		tokenStatus,
		baseURL,
		summary.ConfiguredAt.Format("2006-01-02"),
	)
	h.reply(ctx, b, chatID, text, log)
}

func (h statusHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send status reply", "error", err, "chat_id", chatID)
	}
}
