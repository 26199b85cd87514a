package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// sealedPrefix marks a field value written by the encryption middleware.
const sealedPrefix = "enc:v1:"

// ErrKeySize is returned when a key is not 32 bytes long.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AuditStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the input and output
// text of every record with AES-GCM. Identifiers, statuses and usage numbers
// stay readable so executions can still be listed and graphed.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrKeySize
		}
	}
	return func(next ports.AuditStore) ports.AuditStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

// ParseKey decodes a base64 encoded AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key base64: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrKeySize
	}
	return key, nil
}

func (m *encryptionMiddleware) CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error) {
	var err error
	if rec.Input, err = m.seal(rec.Input); err != nil {
		return "", err
	}
	if rec.Output, err = m.seal(rec.Output); err != nil {
		return "", err
	}
	return m.next.CreateExecution(ctx, rec)
}

func (m *encryptionMiddleware) UpdateExecution(ctx context.Context, id string, outcome domain.ExecutionOutcome) error {
	var err error
	if outcome.Output, err = m.seal(outcome.Output); err != nil {
		return err
	}
	return m.next.UpdateExecution(ctx, id, outcome)
}

func (m *encryptionMiddleware) InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error {
	var err error
	if rec.Input, err = m.seal(rec.Input); err != nil {
		return err
	}
	if rec.Output, err = m.seal(rec.Output); err != nil {
		return err
	}
	return m.next.InsertNodeExecution(ctx, rec)
}

func (m *encryptionMiddleware) GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	rec, err := m.next.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	out := *rec
	if out.Input, err = m.open(out.Input); err != nil {
		return nil, err
	}
	if out.Output, err = m.open(out.Output); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *encryptionMiddleware) ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	recs, err := m.next.ListNodeExecutions(ctx, executionID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NodeExecutionRecord, len(recs))
	for i, rec := range recs {
		if rec.Input, err = m.open(rec.Input); err != nil {
			return nil, err
		}
		if rec.Output, err = m.open(rec.Output); err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func (m *encryptionMiddleware) seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	ciphertext, err := encrypt([]byte(plain), m.config.ActiveKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt record: %w", err)
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// open fails on any non-empty value that was not sealed, so a store written
// without encryption is never silently served as if it were protected.
func (m *encryptionMiddleware) open(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return "", errors.New("record is missing encrypted data envelope")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt record: %w", err)
	}
	return string(plain), nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
