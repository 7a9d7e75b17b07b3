// Package sealbox turns plaintext files into self-describing encrypted
// containers and reverses that transformation given the right
// credentials.
//
// # Overview
//
// sealbox is a local, single-key, whole-file codec. Each encrypted file
// is a container with a fixed 16-byte header followed by the key
// derivation salt, the cipher nonce, and the sealed ciphertext. The
// sealing cipher is AES-256-GCM, so any tampering with the ciphertext
// is detected during decryption.
//
// Keys are derived from a password with PBKDF2-HMAC-SHA256 using a
// deliberately high iteration count. An optional key file (base64 text
// holding exactly 32 raw bytes) can be combined with the password via
// HKDF-SHA256; a container created this way records that fact in its
// header and cannot be opened without both credentials.
//
// # Basic Usage
//
//	base, _ := memfs.NewFS() // any absfs.FileSystem
//
//	box, err := sealbox.New(base, &sealbox.Config{
//	    Settings: sealbox.DefaultSettings(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := box.EncryptFile("notes.txt", "correct horse", nil)
//	if !res.OK {
//	    log.Fatal(res.Err)
//	}
//
//	res = box.DecryptFile(res.OutputPath, "correct horse", nil)
//
// # Key Files
//
//	if err := box.GenerateKeyFile("backup.key"); err != nil {
//	    log.Fatal(err)
//	}
//	res := box.EncryptFile("notes.txt", "correct horse", &sealbox.EncryptOptions{
//	    KeyFilePath: "backup.key",
//	})
//
// # Error Handling
//
// Failures carry a structured kind: format errors (malformed or
// truncated containers), authentication errors (wrong password, wrong
// key file, or corrupted ciphertext, deliberately undifferentiated),
// missing-key-file errors (detected before any key derivation work),
// key format errors, and storage errors. The engine converts all of
// them into a Result with a closed Code set at its boundary; the
// Is* helpers in this package classify the underlying error.
package sealbox
