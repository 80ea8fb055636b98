package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/blinkobot/internal/notes"
)

// NewReplyHandler returns the default handler. When a user replies to one of
// the bot's note confirmations with plain text, the underlying remote note is
// updated and a fresh confirmation (with its own correlation) is sent.
// Anything else is silently ignored.
func NewReplyHandler(deps HandlerDeps) bot.HandlerFunc {
	return replyHandler{deps}.Handle
}

type replyHandler struct {
	deps HandlerDeps
}

func (h replyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reply_update")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	if msg.ReplyToMessage == nil || msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return
	}

	// Only replies to the bot's own messages are update requests.
	botInfo := h.deps.Config.Telegram.BotInfo
	if botInfo == nil || msg.ReplyToMessage.From == nil || msg.ReplyToMessage.From.ID != botInfo.ID {
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID
	msgs := &h.deps.Config.Messages

	newContent := strings.TrimSpace(msg.Text)
	if newContent == "" {
		h.reply(ctx, b, chatID, msgs.EmptyContent, log)
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err)
	}

	noteID, category, err := h.deps.Notes.UpdateViaReply(ctx, userID, int64(msg.ReplyToMessage.ID), chatID, newContent)
	if errors.Is(err, notes.ErrNoCorrelation) {
		// Reply to some unrelated bot message; not an update request.
		log.DebugContext(ctx, "Reply does not map to a note, ignoring",
			"user_id", userID, "replied_to", msg.ReplyToMessage.ID)
		return
	}
	if err != nil {
		log.InfoContext(ctx, "Note update failed", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, userMessage(msgs, err), log)
		return
	}

	confirmation := fmt.Sprintf(msgs.NoteUpdated, category.String(), preview(newContent))
	sent, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: confirmation})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send update confirmation", "error", err, "chat_id", chatID)
		return
	}

	// Track the fresh confirmation so the chain of reply-updates continues.
	if err := h.deps.Notes.Track(ctx, userID, int64(sent.ID), chatID, noteID, category); err != nil {
		log.ErrorContext(ctx, "Failed to track update confirmation", "error", err,
			"user_id", userID, "note_id", noteID)
	}

	log.InfoContext(ctx, "Note updated via reply", "user_id", userID, "note_id", noteID)
}

func (h replyHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
