package sealbox

import (
	"errors"
	"fmt"
)

// Error types represent the closed set of failure kinds the engine reports

// FormatError represents a malformed, truncated, or unsupported container
type FormatError struct {
	Path    string // File path, if applicable
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("format error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents a failed AEAD tag verification: wrong
// password, wrong key file, or corrupted ciphertext. The three causes
// are deliberately indistinguishable.
type AuthenticationError struct {
	Path    string // File path, if applicable
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *AuthenticationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("authentication error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// MissingKeyFileError indicates a container that was sealed with a key
// file which was not supplied for decryption. Raised before any key
// derivation work.
type MissingKeyFileError struct {
	Path string // Container path, if applicable
}

func (e *MissingKeyFileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("key file required: %s was encrypted with a key file that was not provided", e.Path)
	}
	return "key file required: container was encrypted with a key file that was not provided"
}

func (e *MissingKeyFileError) Unwrap() error {
	return ErrKeyFileRequired
}

// KeyFormatError represents a key file that is not valid UTF-8/base64
// or decodes to the wrong byte length
type KeyFormatError struct {
	Path    string // Key file path, if applicable
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *KeyFormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("key format error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("key format error: %s", e.Message)
}

func (e *KeyFormatError) Unwrap() error {
	return e.Err
}

// StorageError represents a read/write/permission failure from the
// storage collaborator
type StorageError struct {
	Operation string // "read", "write", "mkdir", "stat", etc.
	Path      string // File path
	Err       error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage error: %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("storage error: %s: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrAuthFailed           = errors.New("authentication failed - wrong credentials or corrupted data")
	ErrContainerTooShort    = errors.New("container too short for header")
	ErrContainerTruncated   = errors.New("container truncated")
	ErrUnsupportedVersion   = errors.New("unsupported container version")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm id")
	ErrKeyFileRequired      = errors.New("key file required but not provided")
	ErrInvalidKeySize       = errors.New("invalid key size")
	ErrInvalidNonceSize     = errors.New("invalid nonce size")
)

// Helper functions for creating structured errors

// NewFormatError creates a new format error
func NewFormatError(path string, err error) error {
	return &FormatError{
		Path:    path,
		Message: err.Error(),
		Err:     err,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(path string, err error) error {
	return &AuthenticationError{
		Path:    path,
		Message: err.Error(),
		Err:     err,
	}
}

// NewKeyFormatError creates a new key format error
func NewKeyFormatError(path string, err error) error {
	return &KeyFormatError{
		Path:    path,
		Message: err.Error(),
		Err:     err,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(operation, path string, err error) error {
	return &StorageError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Error checking helpers

// IsFormatError checks if an error is a format error
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsMissingKeyFileError checks if an error is a missing key file error
func IsMissingKeyFileError(err error) bool {
	var me *MissingKeyFileError
	return errors.As(err, &me)
}

// IsKeyFormatError checks if an error is a key format error
func IsKeyFormatError(err error) bool {
	var ke *KeyFormatError
	return errors.As(err, &ke)
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
