package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrHashMalformed reports a stored hash that is not a well-formed
// Argon2id PHC string.
var ErrHashMalformed = errors.New("malformed password hash")

// Argon2id parameters, per the OWASP password storage guidance.
const (
	argonIterations = 3
	argonMemoryKiB  = 64 * 1024
	argonThreads    = 1
	argonHashLen    = 32
	argonSaltLen    = 16
)

// phcParts is the number of $-separated segments in a PHC string:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>
const phcParts = 6

// HashPassword derives an Argon2id hash of the password under a fresh
// random salt and encodes it as a PHC string.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt,
		argonIterations, argonMemoryKiB, argonThreads, argonHashLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB, argonIterations, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword reports whether the password matches the stored PHC
// hash, re-deriving with the parameters recorded in the hash itself so
// old hashes keep verifying after a parameter bump. The final comparison
// is constant-time.
func VerifyPassword(password, encodedHash string) (bool, error) {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), p.salt,
		p.iterations, p.memoryKiB, p.threads, uint32(len(p.hash)))

	return subtle.ConstantTimeCompare(p.hash, candidate) == 1, nil
}

// phcHash is a decoded Argon2id PHC string.
type phcHash struct {
	iterations uint32
	memoryKiB  uint32
	threads    uint8
	salt       []byte
	hash       []byte
}

// parsePHC splits and decodes an Argon2id PHC string.
func parsePHC(encoded string) (phcHash, error) {
	var p phcHash

	parts := strings.Split(encoded, "$")
	if len(parts) != phcParts {
		return p, fmt.Errorf("want %d segments, got %d: %w", phcParts, len(parts), ErrHashMalformed)
	}
	if parts[1] != "argon2id" {
		return p, fmt.Errorf("algorithm %q: %w", parts[1], ErrHashMalformed)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, fmt.Errorf("version segment: %w", ErrHashMalformed)
	}
	if version != argon2.Version {
		return p, fmt.Errorf("argon2 version %d: %w", version, ErrHashMalformed)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memoryKiB, &p.iterations, &p.threads); err != nil {
		return p, fmt.Errorf("parameter segment: %w", ErrHashMalformed)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, fmt.Errorf("salt segment: %w", ErrHashMalformed)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, fmt.Errorf("hash segment: %w", ErrHashMalformed)
	}

	p.salt = salt
	p.hash = hash
	return p, nil
}
