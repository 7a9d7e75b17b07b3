package sealbox

import (
	"fmt"
	"testing"

	"github.com/absfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDir_DecryptDir(t *testing.T) {
	box, _ := newTestBox(t)

	files := map[string][]byte{
		"/docs/a.txt":       []byte("alpha"),
		"/docs/b.txt":       []byte("bravo"),
		"/docs/sub/c.txt":   []byte("charlie"),
		"/docs/sub/d/e.bin": randomBytes(t, 2048),
	}
	require.NoError(t, box.storage.EnsureDir("/docs/sub/d"))
	for path, content := range files {
		writeTestFile(t, box, path, content)
	}

	results, err := box.EncryptDir("/docs", "batch password", &BatchOptions{Recursive: true})
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for _, res := range results {
		assert.True(t, res.OK, "encrypt %s failed: %v", res.Path, res.Err)
		assert.True(t, box.storage.Exists(res.OutputPath))
	}

	// Remove plaintexts so decryption provably restores them
	for path := range files {
		require.NoError(t, box.fs.Remove(path))
	}

	results, err = box.DecryptDir("/docs", "batch password", &BatchOptions{Recursive: true})
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for _, res := range results {
		assert.True(t, res.OK, "decrypt %s failed: %v", res.Path, res.Err)
	}

	for path, content := range files {
		assert.Equal(t, content, readTestFile(t, box, path))
	}
}

func TestEncryptDir_SkipsAlreadyEncrypted(t *testing.T) {
	box, _ := newTestBox(t)

	writeTestFile(t, box, "/dir/plain.txt", []byte("plain"))
	writeTestFile(t, box, "/dir/done.txt.sealed", []byte("already a container"))

	results, err := box.EncryptDir("/dir", "pw", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/dir/plain.txt", results[0].Path)
}

func TestEncryptDir_NonRecursive(t *testing.T) {
	box, _ := newTestBox(t)

	writeTestFile(t, box, "/dir/top.txt", []byte("top"))
	writeTestFile(t, box, "/dir/sub/inner.txt", []byte("inner"))

	results, err := box.EncryptDir("/dir", "pw", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/dir/top.txt", results[0].Path)
}

func TestEncryptDir_FailureDoesNotAbortBatch(t *testing.T) {
	box, _ := newTestBox(t)

	writeTestFile(t, box, "/dir/good.txt", []byte("fine"))
	writeTestFile(t, box, "/dir/other.txt", []byte("fine too"))

	// A missing key file fails every file the same way without
	// aborting iteration.
	results, err := box.EncryptDir("/dir", "pw", &BatchOptions{KeyFilePath: "/absent.key"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.False(t, res.OK)
		assert.Equal(t, CodeStorage, res.Code)
	}
}

func TestEncryptDir_MissingDirectory(t *testing.T) {
	box, _ := newTestBox(t)

	_, err := box.EncryptDir("/nope", "pw", nil)
	assert.True(t, IsStorageError(err))
}

func TestRunBatch_ParallelMatchesSequential(t *testing.T) {
	base, err := memfs.NewFS()
	require.NoError(t, err)

	settings := testSettings()
	settings.Parallel = ParallelConfig{
		Enabled:             true,
		MaxWorkers:          4,
		MinFilesForParallel: 2,
	}
	box, err := New(base, &Config{Settings: settings})
	require.NoError(t, err)

	var files []string
	for i := 0; i < 16; i++ {
		path := fmt.Sprintf("/bulk/f%02d.txt", i)
		writeTestFile(t, box, path, []byte(fmt.Sprintf("content %d", i)))
		files = append(files, path)
	}

	results, err := box.EncryptDir("/bulk", "pw", nil)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	seen := make(map[string]bool)
	for _, res := range results {
		require.True(t, res.OK, "encrypt %s failed: %v", res.Path, res.Err)
		seen[res.Path] = true
	}
	for _, path := range files {
		assert.True(t, seen[path], "missing result for %s", path)
	}
}
