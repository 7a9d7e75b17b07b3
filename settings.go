package sealbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Default parameter values. These match the container format the module
// reads and writes; changing KeySize or NonceSize breaks compatibility.
const (
	DefaultKeySize    = 32 // 256-bit keys for AES-256
	DefaultNonceSize  = 12 // GCM standard nonce size
	DefaultSaltSize   = 16
	DefaultIterations = 100000
	DefaultTagSize    = 16

	DefaultEncryptedExtension = ".sealed"
	DefaultCleanPasses        = 3
)

// ParallelConfig controls parallel batch processing
type ParallelConfig struct {
	// Enabled enables the worker pool for directory operations
	Enabled bool `json:"enabled"`

	// MaxWorkers is the maximum number of worker goroutines
	// If 0, defaults to runtime.NumCPU()
	MaxWorkers int `json:"max_workers"`

	// MinFilesForParallel is the minimum number of files to use the
	// worker pool. Below this threshold, files are processed in order.
	// Defaults to 4.
	MinFilesForParallel int `json:"min_files_for_parallel"`
}

// Validate checks if the parallel configuration is valid
func (p *ParallelConfig) Validate() error {
	if !p.Enabled {
		return nil
	}

	if p.MaxWorkers < 0 {
		return errors.New("parallel max workers cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return errors.New("parallel max workers must not exceed 1024")
	}
	if p.MinFilesForParallel < 1 {
		return errors.New("parallel min files threshold must be at least 1")
	}

	return nil
}

// DefaultParallelConfig returns the default batch processing configuration
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Enabled:             true,
		MaxWorkers:          runtime.NumCPU(),
		MinFilesForParallel: 4,
	}
}

// Settings holds the fixed numeric parameters shared by every
// component. A Settings value is injected at construction time and
// never mutated afterwards.
type Settings struct {
	// KeySize is the encryption key size in bytes
	KeySize int `json:"key_size"`

	// NonceSize is the AEAD nonce size in bytes
	NonceSize int `json:"nonce_size"`

	// SaltSize is the size of freshly generated KDF salts in bytes
	SaltSize int `json:"salt_size"`

	// Iterations is the PBKDF2 iteration count
	Iterations int `json:"kdf_iterations"`

	// TagSize is the AEAD authentication tag size in bytes
	TagSize int `json:"tag_size"`

	// EncryptedExtension is appended to encrypted file names
	EncryptedExtension string `json:"encrypted_extension"`

	// CleanPasses is the default overwrite pass count for secure deletion
	CleanPasses int `json:"clean_passes"`

	// Parallel configures batch directory processing
	Parallel ParallelConfig `json:"parallel"`
}

// DefaultSettings returns the standard parameter set
func DefaultSettings() Settings {
	return Settings{
		KeySize:            DefaultKeySize,
		NonceSize:          DefaultNonceSize,
		SaltSize:           DefaultSaltSize,
		Iterations:         DefaultIterations,
		TagSize:            DefaultTagSize,
		EncryptedExtension: DefaultEncryptedExtension,
		CleanPasses:        DefaultCleanPasses,
		Parallel:           DefaultParallelConfig(),
	}
}

// Validate checks if the settings are usable
func (s *Settings) Validate() error {
	if s.KeySize != 32 {
		return fmt.Errorf("key size must be 32 bytes for AES-256, got %d", s.KeySize)
	}
	if s.NonceSize != 12 {
		return fmt.Errorf("nonce size must be 12 bytes for GCM, got %d", s.NonceSize)
	}
	if s.SaltSize < 8 || s.SaltSize > 255 {
		return fmt.Errorf("salt size must be between 8 and 255 bytes, got %d", s.SaltSize)
	}
	if s.Iterations < 1000 {
		return fmt.Errorf("KDF iteration count must be at least 1000, got %d", s.Iterations)
	}
	if s.EncryptedExtension == "" || !strings.HasPrefix(s.EncryptedExtension, ".") {
		return fmt.Errorf("encrypted extension must start with a dot, got %q", s.EncryptedExtension)
	}
	if s.CleanPasses < 1 {
		return fmt.Errorf("clean passes must be at least 1, got %d", s.CleanPasses)
	}
	return s.Parallel.Validate()
}

// EncryptedPath returns the container path for a plaintext path
func (s *Settings) EncryptedPath(path string) string {
	return path + s.EncryptedExtension
}

// DecryptedPath returns the plaintext path for a container path. When
// the container path does not carry the encrypted extension,
// ".decrypted" is appended so the input is never overwritten in place.
func (s *Settings) DecryptedPath(path string) string {
	if strings.HasSuffix(path, s.EncryptedExtension) {
		return strings.TrimSuffix(path, s.EncryptedExtension)
	}
	return path + ".decrypted"
}

// LoadSettings reads settings from a JSON file, fills unset fields with
// defaults, and applies environment overrides.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path) // #nosec G304 - settings path is caller-controlled
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings file: %w", err)
	}

	applyEnvironmentOverrides(&s)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func applyEnvironmentOverrides(s *Settings) {
	if v := os.Getenv("SEALBOX_KDF_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Iterations = n
		}
	}
	if v := os.Getenv("SEALBOX_ENCRYPTED_EXTENSION"); v != "" {
		s.EncryptedExtension = v
	}
	if v := os.Getenv("SEALBOX_CLEAN_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.CleanPasses = n
		}
	}
}
