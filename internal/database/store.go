package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/blinkobot/internal/crypto"
)

// ErrStore is returned for any underlying persistence fault. The raw driver
// error is logged, never propagated, so callers only ever see this generic
// failure.
var ErrStore = errors.New("store operation failed")

// Store defines the interface for credential and correlation persistence.
// Methods accept context.Context for cancellation and timeouts. No method
// lets a raw driver fault escape: faults surface as ErrStore, and unreadable
// ciphertext surfaces as crypto.ErrDecryption.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertCredential encrypts the secret and inserts or replaces the
	// user's credential row. Replacement is atomic, not a merge.
	UpsertCredential(ctx context.Context, userID int64, displayName, secret, baseURL string) error

	// GetCredential returns the decrypted secret for a user, or "" with a
	// nil error if the user has no stored credential.
	GetCredential(ctx context.Context, userID int64) (string, error)

	// GetUserConfig returns the full decrypted configuration for a user.
	// Returns nil, nil if the user has no stored credential.
	GetUserConfig(ctx context.Context, userID int64) (*UserConfig, error)

	// RemoveCredential deletes a user's credential. Returns true if a row
	// existed and was removed.
	RemoveCredential(ctx context.Context, userID int64) (bool, error)

	// CountUsers returns the number of configured users.
	CountUsers(ctx context.Context) (int, error)

	// UpsertCorrelation inserts or replaces a message-to-note correlation.
	UpsertCorrelation(ctx context.Context, c *NoteCorrelation) error

	// GetCorrelation looks up the note behind a bot confirmation message.
	// Returns nil, nil if no correlation exists.
	GetCorrelation(ctx context.Context, userID, messageID, chatID int64) (*NoteCorrelation, error)

	// PruneCorrelations deletes correlations created before the cutoff and
	// returns the number of rows removed. Used by the optional retention task.
	PruneCorrelations(ctx context.Context, olderThan time.Time) (int64, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance, a cipher for secrets at rest,
// and a logger.
func NewStore(db *sqlx.DB, cipher *crypto.Cipher, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		cipher: cipher,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertCredential encrypts the secret and inserts or replaces the user's row.
func (s *sqlxStore) UpsertCredential(ctx context.Context, userID int64, displayName, secret, baseURL string) error {
	if userID == 0 {
		return fmt.Errorf("%w: user_id cannot be zero", ErrStore)
	}
	if secret == "" {
		return fmt.Errorf("%w: secret cannot be empty", ErrStore)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encrypt secret", "user_id", userID, "error", err)
		return fmt.Errorf("%w: encryption failed", ErrStore)
	}

	now := time.Now().UTC()
	cred := &UserCredential{
		UserID:          userID,
		DisplayName:     displayName,
		EncryptedSecret: encrypted,
		BaseURL:         baseURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for credential upsert", "user_id", userID, "error", err)
		return fmt.Errorf("%w: begin transaction", ErrStore)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	// ON CONFLICT keeps the original created_at so the status command can
	// show when the user first configured.
	query := `
        INSERT INTO user_credentials (user_id, display_name, encrypted_secret, base_url, created_at, updated_at)
        VALUES (:user_id, :display_name, :encrypted_secret, :base_url, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
            display_name = excluded.display_name,
            encrypted_secret = excluded.encrypted_secret,
            base_url = excluded.base_url,
            updated_at = excluded.updated_at;
    `
	if _, err := tx.NamedExecContext(ctx, query, cred); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting credential", "user_id", userID, "error", err)
		return fmt.Errorf("%w: upsert credential for user %d", ErrStore, userID)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit credential upsert", "user_id", userID, "error", err)
		return fmt.Errorf("%w: commit transaction", ErrStore)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Credential stored", "user_id", userID)
	return nil
}

// GetCredential returns the decrypted secret for a user.
func (s *sqlxStore) GetCredential(ctx context.Context, userID int64) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("%w: user_id cannot be zero", ErrStore)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var encrypted string
	err := s.db.GetContext(ctx, &encrypted,
		`SELECT encrypted_secret FROM user_credentials WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No credential found", "user_id", userID)
		return "", nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return "", err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting credential", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: get credential for user %d", ErrStore, userID)
	}

	secret, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		// A credential exists but is unreadable under the current key. This
		// must surface to the user as "reconfigure required", never as "no
		// credential".
		s.logger.ErrorContext(ctx, "Stored credential cannot be decrypted under current key",
			"user_id", userID, "error", err)
		return "", err
	}
	return secret, nil
}

// GetUserConfig returns the full decrypted configuration for a user.
func (s *sqlxStore) GetUserConfig(ctx context.Context, userID int64) (*UserConfig, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user_id cannot be zero", ErrStore)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var cred UserCredential
	query := `SELECT user_id, display_name, encrypted_secret, base_url, created_at, updated_at
	          FROM user_credentials WHERE user_id = ?`
	err := s.db.GetContext(ctx, &cred, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user config", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: get config for user %d", ErrStore, userID)
	}

	secret, err := s.cipher.Decrypt(cred.EncryptedSecret)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored credential cannot be decrypted under current key",
			"user_id", userID, "error", err)
		return nil, err
	}

	return &UserConfig{
		Secret:      secret,
		BaseURL:     cred.BaseURL,
		DisplayName: cred.DisplayName,
		CreatedAt:   cred.CreatedAt,
	}, nil
}

// RemoveCredential deletes a user's credential row.
func (s *sqlxStore) RemoveCredential(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("%w: user_id cannot be zero", ErrStore)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM user_credentials WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing credential", "user_id", userID, "error", err)
		return false, fmt.Errorf("%w: remove credential for user %d", ErrStore, userID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count after credential removal",
			"user_id", userID, "error", err)
		return false, fmt.Errorf("%w: remove credential for user %d", ErrStore, userID)
	}

	removed := affected > 0
	if removed {
		s.logger.InfoContext(ctx, "Credential removed", "user_id", userID)
	}
	return removed, nil
}

// CountUsers returns the number of configured users.
func (s *sqlxStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user_credentials`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting users", "error", err)
		return 0, fmt.Errorf("%w: count users", ErrStore)
	}
	return count, nil
}

// UpsertCorrelation inserts or replaces a message-to-note correlation.
// Correlations are single-purpose, so replacement is silent last-write-wins.
func (s *sqlxStore) UpsertCorrelation(ctx context.Context, c *NoteCorrelation) error {
	if c == nil {
		return fmt.Errorf("%w: cannot save nil correlation", ErrStore)
	}
	if c.UserID == 0 || c.MessageID == 0 || c.ChatID == 0 {
		return fmt.Errorf("%w: correlation key fields must be non-zero", ErrStore)
	}
	if c.NoteID == "" {
		return fmt.Errorf("%w: correlation must reference a note id", ErrStore)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for correlation upsert",
			"user_id", c.UserID, "message_id", c.MessageID, "error", err)
		return fmt.Errorf("%w: begin transaction", ErrStore)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT OR REPLACE INTO note_correlations (user_id, message_id, chat_id, note_id, note_category, created_at)
        VALUES (:user_id, :message_id, :chat_id, :note_id, :note_category, :created_at);
    `
	if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting correlation",
			"user_id", c.UserID, "message_id", c.MessageID, "chat_id", c.ChatID, "error", err)
		return fmt.Errorf("%w: upsert correlation", ErrStore)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit correlation upsert",
			"user_id", c.UserID, "message_id", c.MessageID, "error", err)
		return fmt.Errorf("%w: commit transaction", ErrStore)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Correlation stored",
		"user_id", c.UserID, "message_id", c.MessageID, "chat_id", c.ChatID, "note_id", c.NoteID)
	return nil
}

// GetCorrelation looks up the note behind a bot confirmation message.
func (s *sqlxStore) GetCorrelation(ctx context.Context, userID, messageID, chatID int64) (*NoteCorrelation, error) {
	if userID == 0 || messageID == 0 || chatID == 0 {
		return nil, fmt.Errorf("%w: correlation key fields must be non-zero", ErrStore)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var c NoteCorrelation
	query := `SELECT user_id, message_id, chat_id, note_id, note_category, created_at
	          FROM note_correlations
	          WHERE user_id = ? AND message_id = ? AND chat_id = ?`
	err := s.db.GetContext(ctx, &c, query, userID, messageID, chatID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No correlation found",
			"user_id", userID, "message_id", messageID, "chat_id", chatID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting correlation",
			"user_id", userID, "message_id", messageID, "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("%w: get correlation", ErrStore)
	}

	return &c, nil
}

// PruneCorrelations deletes correlations created before the cutoff.
func (s *sqlxStore) PruneCorrelations(ctx context.Context, olderThan time.Time) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM note_correlations WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning correlations", "cutoff", olderThan, "error", err)
		return 0, fmt.Errorf("%w: prune correlations", ErrStore)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get pruned row count", "error", err)
		return 0, nil
	}

	if pruned > 0 {
		s.logger.InfoContext(ctx, "Pruned old correlations", "count", pruned, "cutoff", olderThan)
	}
	return pruned, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return err

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("%w: vacuum", ErrStore)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
