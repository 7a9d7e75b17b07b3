package sealbox

import (
	"bytes"
	"fmt"
)

const (
	// ContainerVersion is the current container format version
	ContainerVersion = uint8(1)

	// HeaderSize is the fixed size of the container header:
	// version(1) + algorithm(1) + salt len(1) + nonce len(1) +
	// key file flag(1) + reserved(11)
	HeaderSize = 16

	reservedSize = 11

	keyFileFlagNone = uint8(0)
	keyFileFlagSet  = uint8(1)
)

// Container is the parsed form of an encrypted file: a fixed header
// followed by the KDF salt, the cipher nonce, and the sealed
// ciphertext. A Container is built once per operation and never
// mutated afterwards.
type Container struct {
	Version    uint8     // Container format version
	Algorithm  Algorithm // Cipher used to seal the ciphertext
	Salt       []byte    // Salt for password key derivation
	Nonce      []byte    // Nonce used by the cipher
	Ciphertext []byte    // Sealed ciphertext including the tag
	HasKeyFile bool      // Whether a key file was combined into the key
}

// NewContainer creates a container for freshly sealed ciphertext
func NewContainer(salt, nonce, ciphertext []byte, hasKeyFile bool) *Container {
	return &Container{
		Version:    ContainerVersion,
		Algorithm:  AlgorithmAES256GCM,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		HasKeyFile: hasKeyFile,
	}
}

// Size returns the serialized size of the container in bytes
func (c *Container) Size() int {
	return HeaderSize + len(c.Salt) + len(c.Nonce) + len(c.Ciphertext)
}

// Marshal serializes the container. The ciphertext has no length field;
// it is the remainder of the buffer.
func (c *Container) Marshal() ([]byte, error) {
	if len(c.Salt) == 0 || len(c.Salt) > 255 {
		return nil, &FormatError{Message: fmt.Sprintf("salt length %d out of range [1,255]", len(c.Salt))}
	}
	if len(c.Nonce) == 0 || len(c.Nonce) > 255 {
		return nil, &FormatError{Message: fmt.Sprintf("nonce length %d out of range [1,255]", len(c.Nonce))}
	}

	flag := keyFileFlagNone
	if c.HasKeyFile {
		flag = keyFileFlagSet
	}

	buf := bytes.NewBuffer(make([]byte, 0, c.Size()))
	buf.WriteByte(c.Version)
	buf.WriteByte(uint8(c.Algorithm))
	buf.WriteByte(uint8(len(c.Salt)))
	buf.WriteByte(uint8(len(c.Nonce)))
	buf.WriteByte(flag)
	buf.Write(make([]byte, reservedSize))
	buf.Write(c.Salt)
	buf.Write(c.Nonce)
	buf.Write(c.Ciphertext)

	return buf.Bytes(), nil
}

// UnmarshalContainer parses and validates a serialized container. All
// structural checks happen here, before any cryptographic call: a
// malformed container never reaches the cipher.
func UnmarshalContainer(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, &FormatError{
			Message: fmt.Sprintf("container is %d bytes, need at least %d for header", len(data), HeaderSize),
			Err:     ErrContainerTooShort,
		}
	}

	version := data[0]
	if version != ContainerVersion {
		return nil, &FormatError{
			Message: fmt.Sprintf("container version %d is not supported", version),
			Err:     ErrUnsupportedVersion,
		}
	}

	alg := Algorithm(data[1])
	if alg != AlgorithmAES256GCM {
		return nil, &FormatError{
			Message: fmt.Sprintf("algorithm id %d is not supported", data[1]),
			Err:     ErrUnsupportedAlgorithm,
		}
	}

	saltLen := int(data[2])
	nonceLen := int(data[3])
	flag := data[4]

	// Truncation guard: the declared lengths must fit in the remaining
	// bytes. Never read past the buffer, never silently pad.
	if HeaderSize+saltLen+nonceLen > len(data) {
		return nil, &FormatError{
			Message: fmt.Sprintf("declared salt (%d) and nonce (%d) lengths exceed container size %d", saltLen, nonceLen, len(data)),
			Err:     ErrContainerTruncated,
		}
	}

	offset := HeaderSize
	salt := data[offset : offset+saltLen]
	offset += saltLen
	nonce := data[offset : offset+nonceLen]
	offset += nonceLen
	ciphertext := data[offset:]

	return &Container{
		Version:    version,
		Algorithm:  alg,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		HasKeyFile: flag == keyFileFlagSet,
	}, nil
}
