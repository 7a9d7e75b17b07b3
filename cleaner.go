package sealbox

import (
	"io"
	"os"
	"strings"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// overwriteBlockSize is the write granularity for overwrite passes
const overwriteBlockSize = 64 * 1024

// Cleaner securely removes files by overwriting their content before
// deletion, so residual plaintext is not recoverable from the
// underlying storage. Callers invoke it after a successful encrypt;
// the codec itself never deletes anything.
type Cleaner struct {
	fs  absfs.FileSystem
	log logrus.FieldLogger
}

// NewCleaner creates a cleaner over the given filesystem. A nil logger
// discards output.
func NewCleaner(fs absfs.FileSystem, logger logrus.FieldLogger) *Cleaner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Cleaner{fs: fs, log: logger}
}

// CleanFile overwrites the file at path the given number of times,
// renames it to a random name, and deletes it.
func (c *Cleaner) CleanFile(path string, passes int) error {
	if passes < 1 {
		passes = 1
	}

	if err := c.OverwriteFile(path, passes); err != nil {
		return err
	}

	// Rename before deleting so the original name is not left in
	// directory metadata pointing at the overwritten content.
	scrambled := uuid.New().String()
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		scrambled = path[:idx+1] + scrambled
	}
	target := path
	if err := c.fs.Rename(path, scrambled); err == nil {
		target = scrambled
	}

	if err := c.fs.Remove(target); err != nil {
		return NewStorageError("remove", path, err)
	}

	c.log.WithFields(logrus.Fields{
		"path":   path,
		"passes": passes,
	}).Info("file cleaned")

	return nil
}

// OverwriteFile overwrites the file content with zeros without
// deleting the file
func (c *Cleaner) OverwriteFile(path string, passes int) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		return NewStorageError("stat", path, err)
	}
	size := info.Size()

	for pass := 0; pass < passes; pass++ {
		if err := c.overwriteOnce(path, size); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cleaner) overwriteOnce(path string, size int64) error {
	f, err := c.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return NewStorageError("open", path, err)
	}
	defer f.Close()

	block := make([]byte, overwriteBlockSize)
	for written := int64(0); written < size; {
		n := int64(len(block))
		if size-written < n {
			n = size - written
		}
		if _, err := f.Write(block[:n]); err != nil {
			return NewStorageError("write", path, err)
		}
		written += n
	}

	if err := f.Sync(); err != nil {
		return NewStorageError("sync", path, err)
	}
	return nil
}

// CleanDir securely cleans every file in a directory
func (c *Cleaner) CleanDir(dir string, passes int, recursive bool) error {
	files, err := listFiles(c.fs, dir, recursive)
	if err != nil {
		return err
	}

	var firstErr error
	for _, path := range files {
		if err := c.CleanFile(path, passes); err != nil {
			c.log.WithField("path", path).WithError(err).Error("failed to clean file")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
