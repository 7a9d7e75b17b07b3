package sealbox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// AESGCM implements AEAD using AES-256-GCM
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher for the given key
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("AES-256 requires a 32-byte key, got %d bytes: %w", len(key), ErrInvalidKeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// Seal encrypts plaintext and appends the authentication tag
func (a *AESGCM) Seal(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != a.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d: %w", a.NonceSize(), len(nonce), ErrInvalidNonceSize)
	}

	return a.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open verifies the authentication tag and decrypts ciphertext. A
// failed verification is reported as ErrAuthFailed, never as plaintext.
func (a *AESGCM) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != a.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d: %w", a.NonceSize(), len(nonce), ErrInvalidNonceSize)
	}

	plaintext, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// NonceSize returns the nonce size for AES-GCM (12 bytes)
func (a *AESGCM) NonceSize() int {
	return a.aead.NonceSize()
}

// Overhead returns the authentication tag size (16 bytes)
func (a *AESGCM) Overhead() int {
	return a.aead.Overhead()
}

// NewAEAD creates the cipher for an algorithm id. The registry is a
// closed enumeration: exactly one algorithm is supported, and an
// unknown id is rejected before any key material is touched.
func NewAEAD(alg Algorithm, key []byte) (AEAD, error) {
	switch alg {
	case AlgorithmAES256GCM:
		return NewAESGCM(key)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}
