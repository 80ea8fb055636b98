package handlers

import (
	"errors"
	"fmt"

	"github.com/edgard/blinkobot/internal/blinko"
	"github.com/edgard/blinkobot/internal/config"
	"github.com/edgard/blinkobot/internal/crypto"
	"github.com/edgard/blinkobot/internal/database"
	"github.com/edgard/blinkobot/internal/notes"
)

// userMessage maps a typed service error onto a configured user-facing
// reply. Internal error text is never exposed: UnexpectedError and
// StoreError collapse to the generic message.
func userMessage(msgs *config.MessagesConfig, err error) string {
	var apiErr *blinko.APIError

	switch {
	case errors.Is(err, notes.ErrNotConfigured):
		return msgs.NotConfigured
	case errors.Is(err, notes.ErrSecretTooShort):
		return msgs.TokenTooShort
	case errors.Is(err, crypto.ErrDecryption):
		return msgs.ReconfigureNeeded
	case errors.Is(err, blinko.ErrEmptyContent):
		return msgs.EmptyContent
	case errors.Is(err, blinko.ErrUnauthorized):
		return msgs.InvalidToken
	case errors.Is(err, blinko.ErrTimeout):
		return msgs.TimeoutError
	case errors.Is(err, blinko.ErrConnection):
		return msgs.ConnectionError
	case errors.As(err, &apiErr):
		return fmt.Sprintf(msgs.APIError, apiErr.StatusCode)
	case errors.Is(err, database.ErrStore):
		return msgs.GeneralError
	default:
		return msgs.GeneralError
	}
}

// preview truncates note content for confirmation messages.
func preview(content string) string {
	const maxLen = 100
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}
