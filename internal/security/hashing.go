package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidDigest is returned when a stored digest cannot be decoded.
var ErrInvalidDigest = errors.New("invalid digest format")

const (
	argon2Version  = 19 // argon2.Version
	saltLength     = 16
	keyLength      = 32
	maxParallelism = 255
)

// Hasher hashes and verifies passwords using Argon2id with a per-call random
// salt embedded in the digest. Callers must not log or persist plaintext
// passwords.
type Hasher struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// NewHasher returns a Hasher with the given Argon2id cost. Zero values fall
// back to 64 MiB memory, 3 iterations, parallelism 1.
func NewHasher(memoryKiB, iterations uint32) *Hasher {
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if iterations == 0 {
		iterations = 3
	}
	return &Hasher{MemoryKiB: memoryKiB, Iterations: iterations, Parallelism: 1}
}

// Hash produces an encoded Argon2id digest of secret:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>
//
// A fresh random salt is drawn per call, so two digests of the same secret differ.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, h.Iterations, h.MemoryKiB, h.Parallelism, keyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version, h.MemoryKiB, h.Iterations, h.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether secret matches the encoded digest, using the cost
// parameters recorded in the digest and a constant-time comparison.
// Returns ErrInvalidDigest for malformed or unsupported digests.
func (h *Hasher) Verify(secret, digest string) (bool, error) {
	memoryKiB, iterations, parallelism, salt, expected, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}

	// Refuse digests whose recorded cost greatly exceeds our own; a stored
	// digest is trusted input but a corrupted row must not pin the CPU.
	if memoryKiB > h.MemoryKiB*2 || iterations > h.Iterations*2 {
		return false, ErrInvalidDigest
	}

	key := argon2.IDKey([]byte(secret), salt, iterations, memoryKiB, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func decodeDigest(digest string) (memoryKiB, iterations uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}
	if mem == 0 || it == 0 || par == 0 || par > maxParallelism {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}

	b64 := base64.RawStdEncoding
	salt, err = b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}
	key, err = b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return 0, 0, 0, nil, nil, ErrInvalidDigest
	}

	return mem, it, uint8(par), salt, key, nil
}
