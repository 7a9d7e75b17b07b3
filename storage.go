package sealbox

import (
	"io"
	"os"

	"github.com/absfs/absfs"
)

// FSStorage implements Storage over any absfs.FileSystem
type FSStorage struct {
	fs absfs.FileSystem
}

// NewFSStorage creates storage backed by the given filesystem
func NewFSStorage(fs absfs.FileSystem) *FSStorage {
	return &FSStorage{fs: fs}
}

// Exists reports whether a file exists at path
func (s *FSStorage) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

// ReadFile reads the entire file at path
func (s *FSStorage) ReadFile(path string) ([]byte, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewStorageError("open", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, NewStorageError("read", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating or truncating the file.
// Containers and key files carry secrets-adjacent material, so the
// file is created owner-readable only.
func (s *FSStorage) WriteFile(path string, data []byte) error {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return NewStorageError("open", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return NewStorageError("write", path, err)
	}

	if err := f.Close(); err != nil {
		return NewStorageError("close", path, err)
	}
	return nil
}

// EnsureDir creates the directory at path along with any parents
func (s *FSStorage) EnsureDir(path string) error {
	if err := s.fs.MkdirAll(path, 0700); err != nil {
		return NewStorageError("mkdir", path, err)
	}
	return nil
}
