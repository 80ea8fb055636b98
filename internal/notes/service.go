// Package notes sequences store lookups and remote client calls for each
// incoming command. Handlers call into this service and map its typed errors
// to user-facing messages; nothing here touches the chat transport.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/blinkobot/internal/blinko"
	"github.com/edgard/blinkobot/internal/database"
)

var (
	// ErrNotConfigured means the user has no stored credential.
	ErrNotConfigured = errors.New("no credential configured")

	// ErrNoCorrelation means the replied-to message does not map to a note.
	ErrNoCorrelation = errors.New("no note correlation for message")

	// ErrSecretTooShort rejects obviously truncated tokens before any
	// network call.
	ErrSecretTooShort = errors.New("secret is too short")
)

const minSecretLength = 10

// ConfigSummary is the status view of a user's configuration.
type ConfigSummary struct {
	DisplayName     string
	BaseURL         string
	ConfiguredAt    time.Time
	CredentialOK    bool
	CredentialError error // nil when CredentialOK; otherwise the probe's typed error
}

// Service orchestrates credential and note commands.
type Service struct {
	store  database.Store
	client blinko.Client
	log    *slog.Logger
}

// NewService creates the command orchestrator.
func NewService(store database.Store, client blinko.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		client: client,
		log:    log.With("component", "notes_service"),
	}
}

// clientFor resolves the per-user base URL override, falling back to the
// configured default.
func (s *Service) clientFor(baseURL string) blinko.Client {
	if baseURL == "" {
		return s.client
	}
	return s.client.WithBase(baseURL)
}

// Configure validates the raw secret against the remote service and, on
// acceptance, stores it encrypted. A rejected or unreachable validation
// leaves any previous credential untouched.
func (s *Service) Configure(ctx context.Context, userID int64, displayName, rawSecret string) error {
	rawSecret = strings.TrimSpace(rawSecret)
	if len(rawSecret) < minSecretLength {
		return ErrSecretTooShort
	}

	if err := s.client.ValidateCredential(ctx, rawSecret); err != nil {
		s.log.InfoContext(ctx, "Credential validation failed", "user_id", userID, "error", err)
		return err
	}

	if err := s.store.UpsertCredential(ctx, userID, displayName, rawSecret, ""); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "User configured", "user_id", userID)
	return nil
}

// Create creates a note with the user's stored credential and returns the
// remote note id (possibly empty if the service omitted one).
func (s *Service) Create(ctx context.Context, userID int64, content string, category database.NoteCategory) (string, error) {
	cfg, err := s.userConfig(ctx, userID)
	if err != nil {
		return "", err
	}

	noteID, err := s.clientFor(cfg.BaseURL).CreateNote(ctx, cfg.Secret, content, category)
	if err != nil {
		s.log.InfoContext(ctx, "Note creation failed", "user_id", userID, "category", category.String(), "error", err)
		return "", err
	}

	s.log.InfoContext(ctx, "Note created", "user_id", userID, "category", category.String(), "note_id", noteID)
	return noteID, nil
}

// Track records the correlation between the confirmation message the bot
// just sent and the remote note it reports on.
func (s *Service) Track(ctx context.Context, userID, messageID, chatID int64, noteID string, category database.NoteCategory) error {
	return s.store.UpsertCorrelation(ctx, &database.NoteCorrelation{
		UserID:       userID,
		MessageID:    messageID,
		ChatID:       chatID,
		NoteID:       noteID,
		NoteCategory: category,
	})
}

// UpdateViaReply updates the note behind a previously sent confirmation
// message. Returns the note id and category so the caller can send a fresh
// confirmation and Track it.
func (s *Service) UpdateViaReply(ctx context.Context, userID, repliedToMessageID, chatID int64, newContent string) (string, database.NoteCategory, error) {
	cfg, err := s.userConfig(ctx, userID)
	if err != nil {
		return "", 0, err
	}

	corr, err := s.store.GetCorrelation(ctx, userID, repliedToMessageID, chatID)
	if err != nil {
		return "", 0, err
	}
	if corr == nil {
		return "", 0, ErrNoCorrelation
	}

	noteID, err := s.clientFor(cfg.BaseURL).UpdateNote(ctx, cfg.Secret, corr.NoteID, newContent, corr.NoteCategory)
	if err != nil {
		s.log.InfoContext(ctx, "Note update failed", "user_id", userID, "note_id", corr.NoteID, "error", err)
		return "", 0, err
	}

	s.log.InfoContext(ctx, "Note updated", "user_id", userID, "note_id", noteID)
	return noteID, corr.NoteCategory, nil
}

// Status reports the user's configuration, including a live credential
// probe. Returns nil, nil when the user has no stored credential.
func (s *Service) Status(ctx context.Context, userID int64) (*ConfigSummary, error) {
	cfg, err := s.store.GetUserConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	summary := &ConfigSummary{
		DisplayName:  cfg.DisplayName,
		BaseURL:      cfg.BaseURL,
		ConfiguredAt: cfg.CreatedAt,
		CredentialOK: true,
	}
	if err := s.clientFor(cfg.BaseURL).ValidateCredential(ctx, cfg.Secret); err != nil {
		summary.CredentialOK = false
		summary.CredentialError = err
	}
	return summary, nil
}

// Reset removes the user's stored credential. Returns true if one existed.
func (s *Service) Reset(ctx context.Context, userID int64) (bool, error) {
	return s.store.RemoveCredential(ctx, userID)
}

// CountUsers exposes the number of configured users for startup logging.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.store.CountUsers(ctx)
}

func (s *Service) userConfig(ctx context.Context, userID int64) (*database.UserConfig, error) {
	cfg, err := s.store.GetUserConfig(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	return cfg, nil
}
