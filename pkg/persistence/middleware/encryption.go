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

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
)

// EncryptedPrefix marks a field sealed by the encryption middleware.
const EncryptedPrefix = "enc:v1:"

// ErrNotEncrypted is returned when a stored record carries plaintext state
// while encryption is configured.
var ErrNotEncrypted = errors.New("metadata state is not encrypted")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// Namespace is bound into every ciphertext together with the chat and
	// message id, so a record copied to another key fails to open.
	Namespace string
}

type encryptionMiddleware struct {
	next   ports.MetadataStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the state fields of
// message metadata with AES-GCM. Scene id, version and timestamps stay in the
// clear so backends can still expire records.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.MetadataStore) ports.MetadataStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error {
	aad := m.aad(chatID, messageID)

	sealed := meta
	var err error
	if sealed.StateJSON, err = m.seal(meta.StateJSON, aad); err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}
	if sealed.StateRef, err = m.seal(meta.StateRef, aad); err != nil {
		return fmt.Errorf("failed to encrypt state ref: %w", err)
	}
	return m.next.Put(ctx, chatID, messageID, sealed)
}

func (m *encryptionMiddleware) Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error) {
	meta, err := m.next.Get(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	aad := m.aad(chatID, messageID)

	opened := *meta
	if opened.StateJSON, err = m.open(meta.StateJSON, aad); err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}
	if opened.StateRef, err = m.open(meta.StateRef, aad); err != nil {
		return nil, fmt.Errorf("failed to decrypt state ref: %w", err)
	}
	return &opened, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, chatID int64, messageID int32) error {
	return m.next.Delete(ctx, chatID, messageID)
}

func (m *encryptionMiddleware) aad(chatID int64, messageID int32) []byte {
	return fmt.Appendf(nil, "ns=%s;chat=%d;mid=%d", m.config.Namespace, chatID, messageID)
}

func (m *encryptionMiddleware) seal(field *string, aad []byte) (*string, error) {
	if field == nil {
		return nil, nil
	}
	ciphertext, err := encrypt([]byte(*field), m.config.ActiveKey, aad)
	if err != nil {
		return nil, err
	}
	out := EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	return &out, nil
}

func (m *encryptionMiddleware) open(field *string, aad []byte) (*string, error) {
	if field == nil {
		return nil, nil
	}
	encoded, ok := strings.CutPrefix(*field, EncryptedPrefix)
	if !ok {
		return nil, ErrNotEncrypted
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, aad, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, err
	}
	out := string(plain)
	return &out, nil
}

// Helpers

func encrypt(plaintext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func decryptWithRotation(ciphertext, aad, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey, aad); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key, aad); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
