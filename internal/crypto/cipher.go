// Package crypto provides authenticated encryption for stored API secrets.
// Secrets are sealed with AES-256-GCM and encoded as base64 strings so they
// can live in a TEXT column.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// KeySize is the required symmetric key length in bytes (AES-256).
const KeySize = 32

// ErrDecryption indicates the ciphertext is malformed, was tampered with,
// or was encrypted under a different key. Callers must treat this as a
// surfaced condition, not as "no data".
var ErrDecryption = errors.New("decryption failed")

// Cipher seals and opens secret strings with a fixed symmetric key.
type Cipher struct {
	aead      cipher.AEAD
	ephemeral bool
}

// NewCipher creates a Cipher from a base64-encoded 32-byte key.
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	return newCipher(key, false)
}

// NewEphemeralCipher creates a Cipher with a randomly generated key.
// Anything encrypted with it becomes unrecoverable after restart, so the
// caller must surface this mode loudly at startup.
func NewEphemeralCipher(log *slog.Logger) (*Cipher, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	if log != nil {
		log.Warn("No encryption key configured, using an ephemeral key. " +
			"Stored credentials will be unreadable after restart. " +
			"Set crypto.key to a base64-encoded 32-byte key for production use.")
	}
	return newCipher(key, true)
}

// GenerateKey returns a fresh base64-encoded key suitable for the crypto.key
// config setting.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func newCipher(key []byte, ephemeral bool) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Cipher{aead: aead, ephemeral: ephemeral}, nil
}

// Ephemeral reports whether the cipher runs on a generated key that will
// not survive a restart.
func (c *Cipher) Ephemeral() bool {
	return c.ephemeral
}

// Encrypt seals plaintext and returns a base64 string of nonce||ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a string produced by Encrypt. Any failure (bad encoding,
// truncated data, authentication mismatch) returns ErrDecryption; garbage
// plaintext is never returned.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryption)
	}
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}
	nonce, data := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}
