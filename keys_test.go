package sealbox

import (
	"encoding/base64"
	"testing"

	"github.com/absfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.Iterations = 1000 // keep the deliberately slow KDF fast in tests
	return s
}

func newTestKeyManager(t *testing.T) *KeyManager {
	t.Helper()
	base, err := memfs.NewFS()
	require.NoError(t, err)
	return NewKeyManager(NewFSStorage(base), testSettings())
}

func TestKeyManager_GenerateKeyAndNonce(t *testing.T) {
	m := newTestKeyManager(t)

	key1, err := m.GenerateKey()
	require.NoError(t, err)
	key2, err := m.GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key1, 32)
	assert.NotEqual(t, key1, key2)

	nonce1, err := m.GenerateNonce()
	require.NoError(t, err)
	nonce2, err := m.GenerateNonce()
	require.NoError(t, err)
	assert.Len(t, nonce1, 12)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestKeyManager_DerivePasswordDeterminism(t *testing.T) {
	m := newTestKeyManager(t)
	salt := randomBytes(t, 16)

	key1, usedSalt, err := m.DerivePassword("correct horse", salt)
	require.NoError(t, err)
	assert.Equal(t, salt, usedSalt)
	assert.Len(t, key1, 32)

	key2, _, err := m.DerivePassword("correct horse", salt)
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "same password and salt must derive identical keys")

	key3, _, err := m.DerivePassword("correct horse", randomBytes(t, 16))
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3, "different salts must derive different keys")

	key4, _, err := m.DerivePassword("wrong", salt)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key4)
}

func TestKeyManager_DerivePasswordFreshSalt(t *testing.T) {
	m := newTestKeyManager(t)

	key1, salt1, err := m.DerivePassword("pw", nil)
	require.NoError(t, err)
	key2, salt2, err := m.DerivePassword("pw", nil)
	require.NoError(t, err)

	assert.Len(t, salt1, DefaultSaltSize)
	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, key1, key2)
}

func TestKeyManager_KeyFileRoundTrip(t *testing.T) {
	m := newTestKeyManager(t)

	require.NoError(t, m.GenerateKeyFile("/keys/backup.key"))

	key, err := m.LoadKeyFile("/keys/backup.key")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// The file itself is base64 text, not raw bytes
	raw, err := m.storage.ReadFile("/keys/backup.key")
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestKeyManager_LoadKeyFileRejects(t *testing.T) {
	m := newTestKeyManager(t)

	testCases := []struct {
		name    string
		content []byte
	}{
		{
			name:    "wrong decoded length",
			content: []byte(base64.StdEncoding.EncodeToString(make([]byte, 31))),
		},
		{
			name:    "not base64",
			content: []byte("this is not base64!!!"),
		},
		{
			name:    "not UTF-8",
			content: []byte{0xff, 0xfe, 0xfd},
		},
		{
			name:    "empty",
			content: []byte(""),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := "/bad-" + tc.name + ".key"
			require.NoError(t, m.storage.WriteFile(path, tc.content))

			key, err := m.LoadKeyFile(path)
			assert.Nil(t, key)
			assert.True(t, IsKeyFormatError(err), "want KeyFormatError, got %v", err)
		})
	}
}

func TestKeyManager_LoadKeyFileTrailingWhitespace(t *testing.T) {
	m := newTestKeyManager(t)

	raw := randomBytes(t, 32)
	content := base64.StdEncoding.EncodeToString(raw) + "\n"
	require.NoError(t, m.storage.WriteFile("/ws.key", []byte(content)))

	key, err := m.LoadKeyFile("/ws.key")
	require.NoError(t, err)
	assert.Equal(t, raw, key)
}

func TestKeyManager_LoadKeyFileMissing(t *testing.T) {
	m := newTestKeyManager(t)

	_, err := m.LoadKeyFile("/nope.key")
	assert.True(t, IsStorageError(err))
}

func TestKeyManager_Combine(t *testing.T) {
	m := newTestKeyManager(t)
	salt := randomBytes(t, 16)
	passwordKey := randomBytes(t, 32)
	keyFile := randomBytes(t, 32)

	t.Run("no key file returns password key", func(t *testing.T) {
		combined, err := m.Combine(nil, passwordKey, salt)
		require.NoError(t, err)
		assert.Equal(t, passwordKey, combined)
	})

	t.Run("key file mixes both inputs", func(t *testing.T) {
		kf := append([]byte(nil), keyFile...)
		pk := append([]byte(nil), passwordKey...)

		combined, err := m.Combine(kf, pk, salt)
		require.NoError(t, err)
		assert.Len(t, combined, 32)
		assert.NotEqual(t, passwordKey, combined)
		assert.NotEqual(t, keyFile, combined)
	})

	t.Run("deterministic", func(t *testing.T) {
		c1, err := m.Combine(append([]byte(nil), keyFile...), append([]byte(nil), passwordKey...), salt)
		require.NoError(t, err)
		c2, err := m.Combine(append([]byte(nil), keyFile...), append([]byte(nil), passwordKey...), salt)
		require.NoError(t, err)
		assert.Equal(t, c1, c2)
	})

	t.Run("either input changes the output", func(t *testing.T) {
		base, err := m.Combine(append([]byte(nil), keyFile...), append([]byte(nil), passwordKey...), salt)
		require.NoError(t, err)

		otherKF, err := m.Combine(randomBytes(t, 32), append([]byte(nil), passwordKey...), salt)
		require.NoError(t, err)
		assert.NotEqual(t, base, otherKF)

		otherPW, err := m.Combine(append([]byte(nil), keyFile...), randomBytes(t, 32), salt)
		require.NoError(t, err)
		assert.NotEqual(t, base, otherPW)
	})
}

func TestZero(t *testing.T) {
	b := randomBytes(t, 32)
	Zero(b)
	assert.Equal(t, make([]byte, 32), b)
}
