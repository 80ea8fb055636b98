package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewConfigureHandler returns a handler for the /configure command. It
// validates the provided token against the remote service before storing it
// encrypted.
func NewConfigureHandler(deps HandlerDeps) bot.HandlerFunc {
	return configureHandler{deps}.Handle
}

type configureHandler struct {
	deps HandlerDeps
}

func (h configureHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "configure")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Configure handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	msgs := &h.deps.Config.Messages

	token := commandArgs(update.Message.Text)
	if token == "" {
		h.reply(ctx, b, chatID, msgs.ProvideToken, log)
		return
	}

	log.InfoContext(ctx, "Handling /configure command", "chat_id", chatID, "user_id", userID)

	h.reply(ctx, b, chatID, msgs.Validating, log)

	name := displayName(update.Message.From.Username, update.Message.From.FirstName)
	if err := h.deps.Notes.Configure(ctx, userID, name, token); err != nil {
		log.InfoContext(ctx, "Configuration failed", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, userMessage(msgs, err), log)
		return
	}

	log.InfoContext(ctx, "User configured successfully", "user_id", userID)
	h.reply(ctx, b, chatID, msgs.ConfigureSuccess, log)
}

func (h configureHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
