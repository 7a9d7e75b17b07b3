package sealbox

import (
	"io"

	"github.com/absfs/absfs"
	"github.com/sirupsen/logrus"
)

// keySource is the subset of KeyManager operations the engine depends on
type keySource interface {
	DerivePassword(password string, salt []byte) ([]byte, []byte, error)
	GenerateNonce() ([]byte, error)
	LoadKeyFile(path string) ([]byte, error)
	Combine(keyFile, passwordKey, salt []byte) ([]byte, error)
}

// Encryptor orchestrates the key manager, the container codec, and the
// cipher into whole-file encrypt/decrypt operations. It holds no
// mutable state across calls; a single Encryptor may be used
// concurrently as long as concurrent calls operate on distinct paths.
type Encryptor struct {
	fs       absfs.FileSystem
	storage  Storage
	keys     keySource
	manager  *KeyManager
	settings Settings
	cleaner  *Cleaner
	log      logrus.FieldLogger
}

// EncryptOptions controls a single EncryptFile call
type EncryptOptions struct {
	// OutputPath overrides the default output path (input + extension)
	OutputPath string

	// KeyFilePath combines the key file at this path into the
	// encryption key; the container records that a key file was used
	KeyFilePath string

	// CleanOriginal securely overwrites and deletes the plaintext
	// after a successful encryption. Requires a configured Cleaner.
	CleanOriginal bool
}

// DecryptOptions controls a single DecryptFile call
type DecryptOptions struct {
	// OutputPath overrides the default output path (input without extension)
	OutputPath string

	// KeyFilePath supplies the key file the container was sealed with
	KeyFilePath string
}

// New creates an encryption engine on top of the base filesystem
func New(base absfs.FileSystem, config *Config) (*Encryptor, error) {
	if base == nil {
		return nil, &FormatError{Message: "base filesystem cannot be nil"}
	}
	if config == nil {
		config = &Config{}
	}

	settings := config.Settings
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	storage := NewFSStorage(base)
	manager := NewKeyManager(storage, settings)

	return &Encryptor{
		fs:       base,
		storage:  storage,
		keys:     manager,
		manager:  manager,
		settings: settings,
		cleaner:  config.Cleaner,
		log:      log,
	}, nil
}

// Settings returns the engine's immutable parameter set
func (e *Encryptor) Settings() Settings {
	return e.settings
}

// GenerateKeyFile generates a random key and writes it to path as
// base64 text
func (e *Encryptor) GenerateKeyFile(path string) error {
	if err := e.manager.GenerateKeyFile(path); err != nil {
		e.log.WithField("path", path).WithError(err).Error("key file generation failed")
		return err
	}
	e.log.WithField("path", path).Info("key file generated")
	return nil
}

// LoadKeyFile reads and validates the key file at path
func (e *Encryptor) LoadKeyFile(path string) ([]byte, error) {
	return e.manager.LoadKeyFile(path)
}

// Encrypt seals plaintext into a serialized container. When keyFile is
// non-nil it is combined with the password-derived key and the
// container's key-file flag is set.
func (e *Encryptor) Encrypt(plaintext []byte, password string, keyFile []byte) ([]byte, error) {
	passwordKey, salt, err := e.keys.DerivePassword(password, nil)
	if err != nil {
		return nil, err
	}
	defer Zero(passwordKey)

	nonce, err := e.keys.GenerateNonce()
	if err != nil {
		return nil, err
	}

	// The combined key exists only for the duration of this call and
	// is the only key ever handed to the cipher.
	key, err := e.keys.Combine(keyFile, passwordKey, salt)
	if err != nil {
		return nil, err
	}
	defer Zero(key)

	aead, err := NewAEAD(AlgorithmAES256GCM, key)
	if err != nil {
		return nil, err
	}

	sealed, err := aead.Seal(nonce, plaintext)
	if err != nil {
		return nil, err
	}

	return NewContainer(salt, nonce, sealed, keyFile != nil).Marshal()
}

// Decrypt opens a serialized container. The container is validated
// before any cryptographic or key derivation work; a container sealed
// with a key file fails immediately when keyFile is nil.
func (e *Encryptor) Decrypt(data []byte, password string, keyFile []byte) ([]byte, error) {
	return e.open(data, password, keyFile, "")
}

func (e *Encryptor) open(data []byte, password string, keyFile []byte, path string) ([]byte, error) {
	c, err := UnmarshalContainer(data)
	if err != nil {
		return nil, err
	}
	return e.openContainer(c, password, keyFile, path)
}

func (e *Encryptor) openContainer(c *Container, password string, keyFile []byte, path string) ([]byte, error) {
	// Fail fast before the slow KDF: a request without the required
	// key file cannot succeed no matter how long derivation runs.
	if c.HasKeyFile && keyFile == nil {
		return nil, &MissingKeyFileError{Path: path}
	}

	// The header flag is authoritative: a container sealed without a
	// key file ignores one supplied by the caller.
	if !c.HasKeyFile {
		keyFile = nil
	}

	passwordKey, _, err := e.keys.DerivePassword(password, c.Salt)
	if err != nil {
		return nil, err
	}
	defer Zero(passwordKey)

	key, err := e.keys.Combine(keyFile, passwordKey, c.Salt)
	if err != nil {
		return nil, err
	}
	defer Zero(key)

	aead, err := NewAEAD(c.Algorithm, key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(c.Nonce, c.Ciphertext)
	if err != nil {
		return nil, NewAuthenticationError(path, err)
	}

	return plaintext, nil
}

// EncryptFile encrypts the file at path and writes the container. The
// outcome is reported as a Result; the Err field preserves the
// specific failure kind.
func (e *Encryptor) EncryptFile(path, password string, opts *EncryptOptions) Result {
	if opts == nil {
		opts = &EncryptOptions{}
	}

	plaintext, err := e.storage.ReadFile(path)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Error("encryption failed")
		return failure(OpEncrypt, path, err)
	}

	var keyFile []byte
	if opts.KeyFilePath != "" {
		keyFile, err = e.manager.LoadKeyFile(opts.KeyFilePath)
		if err != nil {
			e.log.WithField("path", path).WithError(err).Error("encryption failed")
			return failure(OpEncrypt, path, err)
		}
		defer Zero(keyFile)
	}

	data, err := e.Encrypt(plaintext, password, keyFile)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Error("encryption failed")
		return failure(OpEncrypt, path, err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = e.settings.EncryptedPath(path)
	} else if dir := parentDir(outputPath); dir != "" {
		if err := e.storage.EnsureDir(dir); err != nil {
			return failure(OpEncrypt, path, err)
		}
	}

	if err := e.storage.WriteFile(outputPath, data); err != nil {
		e.log.WithField("path", path).WithError(err).Error("encryption failed")
		return failure(OpEncrypt, path, err)
	}

	if opts.CleanOriginal && e.cleaner != nil {
		if err := e.cleaner.CleanFile(path, e.settings.CleanPasses); err != nil {
			// The container is already written; a failed clean keeps
			// the plaintext around but does not undo the encryption.
			e.log.WithField("path", path).WithError(err).Warn("failed to clean original file")
		}
	}

	e.log.WithFields(logrus.Fields{
		"path":   path,
		"output": outputPath,
		"size":   len(plaintext),
	}).Info("encryption completed")

	return success(OpEncrypt, path, outputPath, int64(len(plaintext)))
}

// DecryptFile decrypts the container at path and writes the plaintext.
// An AuthenticationError in the Result means wrong password, wrong key
// file, or corrupted data; the engine does not distinguish them.
func (e *Encryptor) DecryptFile(path, password string, opts *DecryptOptions) Result {
	if opts == nil {
		opts = &DecryptOptions{}
	}

	data, err := e.storage.ReadFile(path)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Error("decryption failed")
		return failure(OpDecrypt, path, err)
	}

	c, err := UnmarshalContainer(data)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Error("decryption failed")
		return failure(OpDecrypt, path, err)
	}

	if c.HasKeyFile && opts.KeyFilePath == "" {
		err := &MissingKeyFileError{Path: path}
		e.log.WithField("path", path).WithError(err).Error("decryption failed")
		return failure(OpDecrypt, path, err)
	}

	var keyFile []byte
	if c.HasKeyFile {
		keyFile, err = e.manager.LoadKeyFile(opts.KeyFilePath)
		if err != nil {
			e.log.WithField("path", path).WithError(err).Error("decryption failed")
			return failure(OpDecrypt, path, err)
		}
		defer Zero(keyFile)
	}

	plaintext, err := e.openContainer(c, password, keyFile, path)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Error("decryption failed")
		return failure(OpDecrypt, path, err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = e.settings.DecryptedPath(path)
	} else if dir := parentDir(outputPath); dir != "" {
		if err := e.storage.EnsureDir(dir); err != nil {
			return failure(OpDecrypt, path, err)
		}
	}

	if err := e.storage.WriteFile(outputPath, plaintext); err != nil {
		e.log.WithField("path", path).WithError(err).Error("decryption failed")
		return failure(OpDecrypt, path, err)
	}

	e.log.WithFields(logrus.Fields{
		"path":   path,
		"output": outputPath,
		"size":   len(plaintext),
	}).Info("decryption completed")

	return success(OpDecrypt, path, outputPath, int64(len(plaintext)))
}
