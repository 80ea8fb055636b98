package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/blinkobot/internal/database"
)

// NewNoteHandler returns a handler creating notes of the given category.
// It backs both /note (CategoryNote) and /quick (CategoryQuick).
func NewNoteHandler(deps HandlerDeps, category database.NoteCategory) bot.HandlerFunc {
	return noteHandler{deps: deps, category: category}.Handle
}

type noteHandler struct {
	deps     HandlerDeps
	category database.NoteCategory
}

func (h noteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.category.String())

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Note handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	msgs := &h.deps.Config.Messages

	content := commandArgs(update.Message.Text)
	if content == "" {
		h.reply(ctx, b, chatID, msgs.ProvideContent, log)
		return
	}

	log.InfoContext(ctx, "Handling note creation", "chat_id", chatID, "user_id", userID)

	// Typing indicator while the remote call is in flight.
	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err)
	}

	noteID, err := h.deps.Notes.Create(ctx, userID, content, h.category)
	if err != nil {
		log.InfoContext(ctx, "Note creation failed", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, userMessage(msgs, err), log)
		return
	}

	idInfo := ""
	if noteID != "" {
		idInfo = fmt.Sprintf(" (ID: %s)", noteID)
	}
	confirmation := fmt.Sprintf(msgs.NoteSaved, h.category.String(), idInfo, preview(content))

	sent, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: confirmation})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation message", "error", err, "chat_id", chatID)
		return
	}

	// The correlation points at the confirmation the bot just sent, so a
	// later reply to it can update the note. Without a remote id there is
	// nothing to update, so nothing is tracked.
	if noteID != "" {
		if err := h.deps.Notes.Track(ctx, userID, int64(sent.ID), chatID, noteID, h.category); err != nil {
			log.ErrorContext(ctx, "Failed to track confirmation message", "error", err,
				"user_id", userID, "note_id", noteID)
		}
	}

	log.InfoContext(ctx, "Note created", "user_id", userID, "note_id", noteID, "category", h.category.String())
}

func (h noteHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
