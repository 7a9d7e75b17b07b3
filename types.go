package sealbox

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Algorithm identifies the AEAD cipher used to seal a container.
// The value is stored in the container header, so existing ids must
// never be reassigned.
type Algorithm uint8

const (
	// AlgorithmAES256GCM uses AES-256 with Galois/Counter Mode
	AlgorithmAES256GCM Algorithm = 1
)

// String returns the string representation of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmAES256GCM:
		return "aes-256-gcm"
	default:
		return "unknown"
	}
}

// Operation labels what an engine call was doing when it produced a Result.
type Operation uint8

const (
	// OpEncrypt is a plaintext-to-container operation
	OpEncrypt Operation = iota
	// OpDecrypt is a container-to-plaintext operation
	OpDecrypt
)

// String returns the string representation of the operation
func (o Operation) String() string {
	switch o {
	case OpEncrypt:
		return "encrypt"
	case OpDecrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}

// AEAD seals and opens whole byte slices with an authenticated cipher.
// Implementations are pure transforms: no I/O, no logging.
type AEAD interface {
	// Seal encrypts plaintext and appends the authentication tag
	Seal(nonce, plaintext []byte) ([]byte, error)

	// Open verifies the authentication tag and decrypts ciphertext
	Open(nonce, ciphertext []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes
	NonceSize() int

	// Overhead returns the authentication tag size
	Overhead() int
}

// Storage is the file access capability consumed by the engine and the
// key manager. Implementations report failures as *StorageError.
type Storage interface {
	// Exists reports whether a file exists at path
	Exists(path string) bool

	// ReadFile reads the entire file at path
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to path, creating or truncating the file
	WriteFile(path string, data []byte) error

	// EnsureDir creates the directory at path along with any parents
	EnsureDir(path string) error
}

// Config contains configuration for the encryption engine
type Config struct {
	// Settings holds the fixed numeric parameters. The zero value is
	// replaced by DefaultSettings.
	Settings Settings

	// Logger receives structured operation logs. When nil, logging is
	// discarded.
	Logger logrus.FieldLogger

	// Cleaner is used to securely remove originals after encryption.
	// Optional; when nil, CleanOriginal requests are ignored.
	Cleaner *Cleaner
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return nil
}
