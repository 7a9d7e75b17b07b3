package sealbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// keyCombineInfo is the HKDF context string for combining a key file
// with a password-derived key. Fixed for the lifetime of the format.
const keyCombineInfo = "sealbox-key-combination"

// KeyManager generates, derives, and combines key material. It is a
// pure function library over explicit inputs: no state is shared
// across calls beyond the read-only settings.
type KeyManager struct {
	storage  Storage
	settings Settings
}

// NewKeyManager creates a key manager backed by the given storage
func NewKeyManager(storage Storage, settings Settings) *KeyManager {
	return &KeyManager{
		storage:  storage,
		settings: settings,
	}
}

// GenerateKey returns KeySize cryptographically secure random bytes.
// An entropy failure is returned as an error and never retried.
func (m *KeyManager) GenerateKey() ([]byte, error) {
	key := make([]byte, m.settings.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateNonce returns NonceSize cryptographically secure random bytes
func (m *KeyManager) GenerateNonce() ([]byte, error) {
	nonce := make([]byte, m.settings.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// DerivePassword derives an encryption key from a password with
// PBKDF2-HMAC-SHA256. When salt is nil a fresh random salt is
// generated (encryption path); otherwise the supplied salt is used
// (decryption path, salt read from the container). Identical password
// and salt always yield the identical key.
func (m *KeyManager) DerivePassword(password string, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, m.settings.SaltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	key := pbkdf2.Key([]byte(password), salt, m.settings.Iterations, m.settings.KeySize, sha256.New)
	return key, salt, nil
}

// GenerateKeyFile generates a random key and writes it to path as
// base64 text. The parent directory is created if needed.
func (m *KeyManager) GenerateKeyFile(path string) error {
	key, err := m.GenerateKey()
	if err != nil {
		return err
	}
	defer Zero(key)

	if dir := parentDir(path); dir != "" {
		if err := m.storage.EnsureDir(dir); err != nil {
			return err
		}
	}

	encoded := base64.StdEncoding.EncodeToString(key)
	return m.storage.WriteFile(path, []byte(encoded))
}

// LoadKeyFile reads a key file: UTF-8 text holding a base64 encoding
// of exactly KeySize raw bytes. Trailing whitespace is tolerated. The
// decoded byte length is the actual security parameter, so the length
// check is mandatory.
func (m *KeyManager) LoadKeyFile(path string) ([]byte, error) {
	data, err := m.storage.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, &KeyFormatError{Path: path, Message: "key file is not valid UTF-8"}
	}

	encoded := strings.TrimSpace(string(data))
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, NewKeyFormatError(path, fmt.Errorf("key file is not valid base64: %w", err))
	}

	if len(key) != m.settings.KeySize {
		return nil, &KeyFormatError{
			Path:    path,
			Message: fmt.Sprintf("key must decode to %d bytes, got %d", m.settings.KeySize, len(key)),
			Err:     ErrInvalidKeySize,
		}
	}

	return key, nil
}

// Combine mixes key-file bytes and a password-derived key into one
// encryption key with HKDF-SHA256 over keyFile || passwordKey, using
// salt as the HKDF salt. Reconstruction requires both inputs; neither
// input is recoverable from the output. When keyFile is nil the
// password key is returned unchanged.
func (m *KeyManager) Combine(keyFile, passwordKey, salt []byte) ([]byte, error) {
	if keyFile == nil {
		return passwordKey, nil
	}

	secret := make([]byte, 0, len(keyFile)+len(passwordKey))
	secret = append(secret, keyFile...)
	secret = append(secret, passwordKey...)
	defer Zero(secret)

	reader := hkdf.New(sha256.New, secret, salt, []byte(keyCombineInfo))
	combined := make([]byte, m.settings.KeySize)
	if _, err := io.ReadFull(reader, combined); err != nil {
		return nil, fmt.Errorf("failed to combine keys: %w", err)
	}

	return combined, nil
}

// Zero overwrites a byte slice with zeros. Best-effort hardening for
// key material whose lifetime has ended; the garbage collector gives
// no stronger guarantee.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// parentDir returns the directory portion of a slash path, or "" when
// the path has no directory component.
func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
