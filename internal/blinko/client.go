// Package blinko implements the HTTP client for the remote Blinko note
// service. Every call classifies its outcome into the fixed error taxonomy
// in errors.go so the rest of the bot never deals with raw transport errors.
package blinko

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/edgard/blinkobot/internal/database"
)

const userAgent = "blinkobot/1.0"

// Client defines the operations against the remote note service.
type Client interface {
	// CreateNote creates a note and returns the remote note id. The id may
	// be empty if the service responded 2xx without one.
	CreateNote(ctx context.Context, secret, content string, category database.NoteCategory) (string, error)

	// UpdateNote updates an existing note via the same upsert endpoint.
	// If the response omits an id, the original noteID is returned.
	UpdateNote(ctx context.Context, secret, noteID, content string, category database.NoteCategory) (string, error)

	// ValidateCredential probes the service with a lightweight read. Only a
	// literal 401 is a rejection; any other response, including 403, proves
	// the service recognized the credential.
	ValidateCredential(ctx context.Context, secret string) error

	// WithBase returns a client targeting a different base URL, for per-user
	// overrides. The underlying HTTP client is shared.
	WithBase(baseURL string) Client
}

// Config holds the client settings.
type Config struct {
	BaseURL            string
	WriteTimeout       time.Duration // timeout for create/update calls
	ValidateTimeout    time.Duration // timeout for the validation probe
	InsecureSkipVerify bool          // opt-in only; default verifies certificates
}

type httpClient struct {
	base            string
	hc              *http.Client
	validateTimeout time.Duration
	log             *slog.Logger
}

// NewClient creates a Blinko API client. TLS verification is on by default;
// InsecureSkipVerify is an explicit opt-in for self-signed deployments and
// produces a loud warning.
func NewClient(cfg Config, log *slog.Logger) Client {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "blinko_client")

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	validateTimeout := cfg.ValidateTimeout
	if validateTimeout <= 0 {
		validateTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		log.Warn("TLS certificate verification is DISABLED for the remote note service. " +
			"This exposes credentials to interception; use only with trusted self-signed deployments.")
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		transport = t
	}

	return &httpClient{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		hc: &http.Client{
			Timeout:   writeTimeout,
			Transport: transport,
		},
		validateTimeout: validateTimeout,
		log:             log,
	}
}

// WithBase returns a shallow copy of the client targeting another base URL.
func (c *httpClient) WithBase(baseURL string) Client {
	if baseURL == "" {
		return c
	}
	clone := *c
	clone.base = strings.TrimRight(baseURL, "/")
	return &clone
}

type upsertRequest struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
	Type    int    `json:"type"`
}

// CreateNote creates a note via POST {base}/note/upsert.
func (c *httpClient) CreateNote(ctx context.Context, secret, content string, category database.NoteCategory) (string, error) {
	return c.upsert(ctx, secret, "", content, category)
}

// UpdateNote updates an existing note via the same upsert endpoint, carrying
// the note id.
func (c *httpClient) UpdateNote(ctx context.Context, secret, noteID, content string, category database.NoteCategory) (string, error) {
	return c.upsert(ctx, secret, noteID, content, category)
}

func (c *httpClient) upsert(ctx context.Context, secret, noteID, content string, category database.NoteCategory) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	body, err := json.Marshal(upsertRequest{
		ID:      noteID,
		Content: content,
		Type:    int(category),
	})
	if err != nil {
		return "", &UnexpectedError{Detail: "failed to build request", cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/note/upsert", bytes.NewReader(body))
	if err != nil {
		return "", &UnexpectedError{Detail: "failed to build request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	c.log.InfoContext(ctx, "POST /note/upsert", "status", resp.StatusCode, "update", noteID != "")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrUnauthorized
	case resp.StatusCode >= 400:
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", c.classifyTransportError(ctx, err)
	}

	id, err := noteIDFromBody(data)
	if err != nil {
		c.log.WarnContext(ctx, "Unparseable upsert response body", "error", err)
		return "", &UnexpectedError{Detail: "remote service returned an unreadable response", cause: err}
	}
	if id == "" && noteID != "" {
		// Update responses may omit the id; the note keeps its identity.
		id = noteID
	}
	return id, nil
}

// ValidateCredential probes GET {base}/note. The asymmetric policy is
// deliberate: only a literal 401 proves rejection, while 403 and every other
// status prove the service recognized the credential. This avoids false
// negatives against services with stricter endpoint permissions.
func (c *httpClient) ValidateCredential(ctx context.Context, secret string) error {
	ctx, cancel := context.WithTimeout(ctx, c.validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/note", nil)
	if err != nil {
		return &UnexpectedError{Detail: "failed to build request", cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	c.log.InfoContext(ctx, "GET /note (credential probe)", "status", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// classifyTransportError maps a failed round trip onto the taxonomy.
func (c *httpClient) classifyTransportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded):
		c.log.WarnContext(ctx, "Request to remote note service timed out", "error", err)
		return ErrTimeout

	case errors.Is(err, context.Canceled):
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.log.WarnContext(ctx, "Request to remote note service timed out", "error", err)
		return ErrTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		c.log.WarnContext(ctx, "Connection to remote note service failed", "error", err)
		return ErrConnection
	}

	c.log.ErrorContext(ctx, "Unexpected error calling remote note service", "error", err)
	return &UnexpectedError{Detail: "unexpected error contacting remote service", cause: err}
}

// noteIDFromBody extracts the id field from an upsert response. The remote
// service returns ids as JSON numbers, but opaque string ids are accepted
// too. A body without an id yields "" with no error.
func noteIDFromBody(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}

	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(body.ID) == 0 || string(body.ID) == "null" {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(body.ID, &asString); err == nil {
		return asString, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(body.ID, &asNumber); err == nil {
		return asNumber.String(), nil
	}
	return "", fmt.Errorf("unsupported id type in response: %s", string(body.ID))
}
