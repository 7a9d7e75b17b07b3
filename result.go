package sealbox

import (
	"errors"
	"fmt"
)

// Code classifies a failed operation. The set is closed: callers can
// switch on it without re-deriving the failure kind from message text.
type Code string

const (
	// CodeOK marks a successful operation
	CodeOK Code = "ok"
	// CodeFormat marks a malformed or unsupported container
	CodeFormat Code = "format"
	// CodeAuth marks a failed tag verification
	CodeAuth Code = "auth"
	// CodeMissingKeyFile marks a container that needs an absent key file
	CodeMissingKeyFile Code = "missing_key_file"
	// CodeKeyFormat marks an unreadable or wrong-length key file
	CodeKeyFormat Code = "key_format"
	// CodeStorage marks a read/write failure
	CodeStorage Code = "storage"
	// CodeInternal marks any other failure
	CodeInternal Code = "internal"
)

// Result reports the outcome of one encrypt or decrypt call. It is
// produced once, never mutated, and carries no behavior beyond
// formatting.
type Result struct {
	OK         bool      // Whether the operation succeeded
	Operation  Operation // What the call was doing
	Path       string    // Input path
	OutputPath string    // Output path, set on success
	Size       int64     // Plaintext size in bytes, set on success
	Code       Code      // Failure classification, CodeOK on success
	Err        error     // Underlying error, nil on success
}

// String returns a human-readable summary of the result
func (r Result) String() string {
	if r.OK {
		return fmt.Sprintf("%s successful: %s (%d bytes)", r.Operation, r.OutputPath, r.Size)
	}
	return fmt.Sprintf("%s failed [%s]: %v", r.Operation, r.Code, r.Err)
}

// classify maps an error to its Code. The structured error types take
// precedence over sentinels so wrapped causes keep their kind.
func classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case IsMissingKeyFileError(err):
		return CodeMissingKeyFile
	case IsAuthenticationError(err) || errors.Is(err, ErrAuthFailed):
		return CodeAuth
	case IsKeyFormatError(err):
		return CodeKeyFormat
	case IsFormatError(err):
		return CodeFormat
	case IsStorageError(err):
		return CodeStorage
	default:
		return CodeInternal
	}
}

func success(op Operation, path, outputPath string, size int64) Result {
	return Result{
		OK:         true,
		Operation:  op,
		Path:       path,
		OutputPath: outputPath,
		Size:       size,
		Code:       CodeOK,
	}
}

func failure(op Operation, path string, err error) Result {
	return Result{
		Operation: op,
		Path:      path,
		Code:      classify(err),
		Err:       err,
	}
}
