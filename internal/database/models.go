package database

import (
	"time"
)

// NoteCategory mirrors the remote service's two-valued note classification.
type NoteCategory int

const (
	// CategoryNote is a regular note (remote type 0).
	CategoryNote NoteCategory = 0
	// CategoryQuick is a quick note (remote type 1).
	CategoryQuick NoteCategory = 1
)

func (c NoteCategory) String() string {
	if c == CategoryQuick {
		return "quick"
	}
	return "note"
}

// UserCredential holds one user's remote API secret, encrypted at rest.
// At most one row exists per user; re-configuration replaces it.
type UserCredential struct {
	UserID          int64     `db:"user_id"`
	DisplayName     string    `db:"display_name"`
	EncryptedSecret string    `db:"encrypted_secret"`
	BaseURL         string    `db:"base_url"` // optional per-user override of the remote base URL
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// NoteCorrelation maps one of the bot's confirmation messages to the remote
// note it reports on, enabling reply-to-update. Rows are last-write-wins and
// are never deleted individually; the optional retention task prunes old ones.
type NoteCorrelation struct {
	UserID       int64        `db:"user_id"`
	MessageID    int64        `db:"message_id"`
	ChatID       int64        `db:"chat_id"`
	NoteID       string       `db:"note_id"`
	NoteCategory NoteCategory `db:"note_category"`
	CreatedAt    time.Time    `db:"created_at"`
}

// UserConfig is the decrypted view of a stored credential, used by the
// status command.
type UserConfig struct {
	Secret      string
	BaseURL     string
	DisplayName string
	CreatedAt   time.Time
}
