package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetHandler returns a handler for the /reset command, which deletes
// the user's stored credential.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Reset handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	msgs := &h.deps.Config.Messages

	removed, err := h.deps.Notes.Reset(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reset configuration", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, userMessage(msgs, err), log)
		return
	}

	if !removed {
		h.reply(ctx, b, chatID, msgs.ResetNothing, log)
		return
	}

	log.InfoContext(ctx, "Configuration removed", "user_id", userID)
	h.reply(ctx, b, chatID, msgs.ResetSuccess, log)
}

func (h resetHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reset reply", "error", err, "chat_id", chatID)
	}
}
