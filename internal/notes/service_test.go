package notes_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/edgard/blinkobot/internal/blinko"
	"github.com/edgard/blinkobot/internal/crypto"
	"github.com/edgard/blinkobot/internal/database"
	"github.com/edgard/blinkobot/internal/notes"
)

// fakeClient implements blinko.Client against an in-memory note map and
// records the calls it receives.
type fakeClient struct {
	base        string
	notes       map[string]string
	nextID      int
	validateErr error
	createErr   error
	updateErr   error

	createCalls   int
	updateCalls   []updateCall
	validateCalls int
	lastSecret    string
}

type updateCall struct {
	noteID   string
	content  string
	category database.NoteCategory
}

func newFakeClient() *fakeClient {
	return &fakeClient{notes: map[string]string{}, nextID: 100}
}

func (f *fakeClient) CreateNote(_ context.Context, secret, content string, _ database.NoteCategory) (string, error) {
	f.createCalls++
	f.lastSecret = secret
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.notes[id] = content
	return id, nil
}

func (f *fakeClient) UpdateNote(_ context.Context, secret, noteID, content string, category database.NoteCategory) (string, error) {
	f.updateCalls = append(f.updateCalls, updateCall{noteID: noteID, content: content, category: category})
	f.lastSecret = secret
	if f.updateErr != nil {
		return "", f.updateErr
	}
	f.notes[noteID] = content
	return noteID, nil
}

func (f *fakeClient) ValidateCredential(_ context.Context, secret string) error {
	f.validateCalls++
	f.lastSecret = secret
	return f.validateErr
}

func (f *fakeClient) WithBase(baseURL string) blinko.Client {
	clone := *f
	clone.base = baseURL
	return &clone
}

func newTestService(t *testing.T, client blinko.Client) *notes.Service {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return notes.NewService(database.NewStore(db, cipher, log), client, log)
}

func TestConfigureStoresValidatedSecret(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if client.validateCalls != 1 {
		t.Errorf("validate calls: got %d, want 1", client.validateCalls)
	}

	summary, err := svc.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if summary == nil {
		t.Fatal("expected status summary after configure")
	}
	if !summary.CredentialOK {
		t.Errorf("credential should probe OK, got error %v", summary.CredentialError)
	}
	if summary.DisplayName != "Alice" {
		t.Errorf("display name: got %q", summary.DisplayName)
	}
}

func TestConfigureRejectsShortSecret(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	testCases := []string{"", "short", "  padded  ", "123456789"}
	for _, secret := range testCases {
		if err := svc.Configure(ctx, 42, "Alice", secret); !errors.Is(err, notes.ErrSecretTooShort) {
			t.Errorf("secret %q: expected ErrSecretTooShort, got %v", secret, err)
		}
	}
	if client.validateCalls != 0 {
		t.Errorf("short secrets must not reach validation, saw %d calls", client.validateCalls)
	}
}

func TestConfigureRejectionKeepsOldCredential(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	if err := svc.Configure(ctx, 42, "Alice", "original-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	client.validateErr = blinko.ErrUnauthorized
	err := svc.Configure(ctx, 42, "Alice", "replacement-token")
	if !errors.Is(err, blinko.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	// The rejected attempt must not clobber the stored credential.
	client.validateErr = nil
	if _, err := svc.Create(ctx, 42, "still works", database.CategoryNote); err != nil {
		t.Fatalf("Create with original credential failed: %v", err)
	}
	if client.lastSecret != "original-token" {
		t.Errorf("stored secret: got %q, want original", client.lastSecret)
	}
}

func TestCreateRequiresConfiguration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newFakeClient())

	if _, err := svc.Create(ctx, 42, "content", database.CategoryNote); !errors.Is(err, notes.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateTrackUpdateViaReply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	noteID, err := svc.Create(ctx, 42, "Buy milk", database.CategoryNote)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if noteID == "" {
		t.Fatal("expected a note id")
	}

	// The bot sent confirmation message 1001 in chat -500 for this note.
	if err := svc.Track(ctx, 42, 1001, -500, noteID, database.CategoryNote); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	// The user replies to that confirmation with new content.
	updatedID, category, err := svc.UpdateViaReply(ctx, 42, 1001, -500, "Buy milk and eggs")
	if err != nil {
		t.Fatalf("UpdateViaReply failed: %v", err)
	}
	if updatedID != noteID {
		t.Errorf("updated note id: got %q, want %q", updatedID, noteID)
	}
	if category != database.CategoryNote {
		t.Errorf("category: got %v, want %v", category, database.CategoryNote)
	}

	if len(client.updateCalls) != 1 {
		t.Fatalf("update calls: got %d, want 1", len(client.updateCalls))
	}
	call := client.updateCalls[0]
	if call.noteID != noteID {
		t.Errorf("update targeted note %q, want %q", call.noteID, noteID)
	}
	if call.content != "Buy milk and eggs" {
		t.Errorf("update content: got %q", call.content)
	}
	if call.category != database.CategoryNote {
		t.Errorf("update category: got %v", call.category)
	}
	if client.notes[noteID] != "Buy milk and eggs" {
		t.Errorf("remote note content: got %q", client.notes[noteID])
	}

	// Track the fresh confirmation; replying to it updates the same note.
	if err := svc.Track(ctx, 42, 1002, -500, updatedID, category); err != nil {
		t.Fatalf("Track of fresh confirmation failed: %v", err)
	}
	if _, _, err := svc.UpdateViaReply(ctx, 42, 1002, -500, "Buy milk, eggs and bread"); err != nil {
		t.Fatalf("UpdateViaReply via fresh confirmation failed: %v", err)
	}
	if client.notes[noteID] != "Buy milk, eggs and bread" {
		t.Errorf("remote note content after second update: got %q", client.notes[noteID])
	}
}

func TestUpdateViaReplyWithoutCorrelation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	_, _, err := svc.UpdateViaReply(ctx, 42, 9999, -500, "new content")
	if !errors.Is(err, notes.ErrNoCorrelation) {
		t.Errorf("expected ErrNoCorrelation, got %v", err)
	}
	if len(client.updateCalls) != 0 {
		t.Errorf("no update call expected, saw %d", len(client.updateCalls))
	}
}

func TestUpdateViaReplyRequiresConfiguration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newFakeClient())

	if _, _, err := svc.UpdateViaReply(ctx, 42, 1001, -500, "content"); !errors.Is(err, notes.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreatePropagatesClientErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	client.createErr = blinko.ErrUnauthorized
	if _, err := svc.Create(ctx, 42, "content", database.CategoryNote); !errors.Is(err, blinko.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	client.createErr = blinko.ErrEmptyContent
	if _, err := svc.Create(ctx, 42, "   ", database.CategoryNote); !errors.Is(err, blinko.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	summary, err := svc.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if summary != nil {
		t.Errorf("expected nil summary for unconfigured user, got %+v", summary)
	}

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	// The credential later expires: the status probe reports it as invalid
	// without removing it.
	client.validateErr = blinko.ErrUnauthorized
	summary, err = svc.Status(ctx, 42)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if summary == nil {
		t.Fatal("expected summary for configured user")
	}
	if summary.CredentialOK {
		t.Error("expired credential must report CredentialOK == false")
	}
	if !errors.Is(summary.CredentialError, blinko.ErrUnauthorized) {
		t.Errorf("credential error: got %v, want ErrUnauthorized", summary.CredentialError)
	}
	if summary.ConfiguredAt.IsZero() {
		t.Error("configured-at must be set")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeClient()
	svc := newTestService(t, client)

	existed, err := svc.Reset(ctx, 42)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if existed {
		t.Error("reset of unconfigured user must report false")
	}

	if err := svc.Configure(ctx, 42, "Alice", "valid-secret-token"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	existed, err = svc.Reset(ctx, 42)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !existed {
		t.Error("reset of configured user must report true")
	}

	if _, err := svc.Create(ctx, 42, "content", database.CategoryNote); !errors.Is(err, notes.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured after reset, got %v", err)
	}
}
