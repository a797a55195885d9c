// Package credential implements one-way password hashing and verification
// using argon2id. Hashes are stored in the PHC string format so the salt and
// parameters travel with the hash and old hashes keep verifying after the
// defaults change.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Default argon2id parameters. 64 MiB memory, single pass, four lanes.
const (
	defaultTime    = 1
	defaultMemory  = 64 * 1024
	defaultThreads = 4
	defaultKeyLen  = 32
	saltLen        = 16
)

// ErrMismatch is returned by Verify for both a wrong password and a
// malformed hash string. Callers must not distinguish the two.
var ErrMismatch = errors.New("credential mismatch")

// Hash derives an argon2id hash of plaintext with a fresh random salt.
// A failure here is fatal to callers: an unhashed password must never
// reach the store.
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, defaultTime, defaultMemory, defaultThreads, defaultKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		defaultMemory, defaultTime, defaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify recomputes the hash of plaintext using the salt and parameters
// embedded in encoded and compares in constant time.
func Verify(plaintext, encoded string) error {
	salt, key, timeCost, memory, threads, err := decode(encoded)
	if err != nil {
		return ErrMismatch
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, timeCost, memory, threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return ErrMismatch
	}
	return nil
}

func decode(encoded string) (salt, key []byte, timeCost, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=...,t=...,p=...", salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errors.New("malformed hash string")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, errors.New("unsupported argon2 version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("parse parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("decode salt: %w", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("decode hash: %w", err)
	}
	return salt, key, timeCost, memory, threads, nil
}
