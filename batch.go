package sealbox

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/absfs/absfs"
)

// BatchOptions controls directory-wide encrypt/decrypt operations
type BatchOptions struct {
	// KeyFilePath applies the same key file to every file in the batch
	KeyFilePath string

	// Recursive processes subdirectories as well
	Recursive bool

	// CleanOriginals securely removes each plaintext after a
	// successful encryption. Ignored on decryption.
	CleanOriginals bool
}

// EncryptDir encrypts every file under dir. Files that already carry
// the encrypted extension are skipped. Each file yields its own
// Result; one failure never aborts the batch.
func (e *Encryptor) EncryptDir(dir, password string, opts *BatchOptions) ([]Result, error) {
	if opts == nil {
		opts = &BatchOptions{}
	}

	files, err := listFiles(e.fs, dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	candidates := files[:0]
	for _, path := range files {
		if !strings.HasSuffix(path, e.settings.EncryptedExtension) {
			candidates = append(candidates, path)
		}
	}

	e.log.WithField("dir", dir).WithField("files", len(candidates)).Info("starting batch encryption")

	return e.runBatch(candidates, func(path string) Result {
		return e.EncryptFile(path, password, &EncryptOptions{
			KeyFilePath:   opts.KeyFilePath,
			CleanOriginal: opts.CleanOriginals,
		})
	}), nil
}

// DecryptDir decrypts every container under dir, selected by the
// encrypted extension.
func (e *Encryptor) DecryptDir(dir, password string, opts *BatchOptions) ([]Result, error) {
	if opts == nil {
		opts = &BatchOptions{}
	}

	files, err := listFiles(e.fs, dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	candidates := files[:0]
	for _, path := range files {
		if strings.HasSuffix(path, e.settings.EncryptedExtension) {
			candidates = append(candidates, path)
		}
	}

	e.log.WithField("dir", dir).WithField("files", len(candidates)).Info("starting batch decryption")

	return e.runBatch(candidates, func(path string) Result {
		return e.DecryptFile(path, password, &DecryptOptions{
			KeyFilePath: opts.KeyFilePath,
		})
	}), nil
}

// runBatch processes files sequentially or through a bounded worker
// pool, depending on the parallel settings. Every file operates on a
// distinct path, so no coordination beyond the pool itself is needed.
func (e *Encryptor) runBatch(files []string, op func(string) Result) []Result {
	results := make([]Result, len(files))

	p := e.settings.Parallel
	if !p.Enabled || len(files) < p.MinFilesForParallel {
		for i, path := range files {
			results[i] = op(path)
		}
		return results
	}

	numWorkers := p.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = op(files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// listFiles returns the paths of all regular files under dir
func listFiles(fs absfs.FileSystem, dir string, recursive bool) ([]string, error) {
	f, err := fs.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return nil, NewStorageError("open", dir, err)
	}

	entries, err := f.Readdir(-1)
	f.Close()
	if err != nil {
		return nil, NewStorageError("readdir", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		path := joinPath(dir, name)
		if entry.IsDir() {
			if !recursive {
				continue
			}
			sub, err := listFiles(fs, path, recursive)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		files = append(files, path)
	}

	return files, nil
}

func joinPath(dir, name string) string {
	if dir == "" || dir == "/" {
		return dir + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
