// Package hash provides one-way hashing of passwords and refresh-token
// secrets using argon2id. Encoded hashes are self-describing PHC strings, so
// verification needs no state beyond the hash itself.
package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 2
	argonSaltLen = 16
	argonKeyLen  = 32
)

// Argon2 hashes secrets with fixed argon2id cost parameters. The zero value
// is ready to use; hashing and verification are safe for concurrent use.
type Argon2 struct{}

// NewArgon2 returns an argon2id hasher.
func NewArgon2() Argon2 {
	return Argon2{}
}

// Hash hashes the given secret and returns the encoded form:
// $argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<key>. A hashing failure is
// a process-level error, not a domain outcome.
func (Argon2) Hash(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify reports whether candidate matches the encoded argon2id hash. It
// never returns an error: malformed or unsupported hashes verify as false.
func (Argon2) Verify(encoded, candidate string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Refuse attacker-supplied parameters far beyond our own cost settings.
	if memory > argonMemory*2 || iterations > argonTime*2 || len(expected) == 0 || len(expected) > 128 {
		return false
	}

	computed := argon2.IDKey([]byte(candidate), salt, iterations, memory, threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
