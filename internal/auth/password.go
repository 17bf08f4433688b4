package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Cost settings for newly created hashes. Existing hashes keep the settings
// recorded in them.
const (
	hashIterations = 3
	hashMemoryKiB  = 64 * 1024
	hashThreads    = 1
	hashKeyLen     = 32
	hashSaltLen    = 16
)

// phc is a decoded Argon2id PHC string.
type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p phc) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(p.salt), b64.EncodeToString(p.key))
}

// derive computes the key for password using p's salt and cost settings.
func (p phc) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, keyLen)
}

// HashPassword returns the Argon2id PHC string for password, the form
// expected in security.users[].password_hash:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
func HashPassword(password string) (string, error) {
	p := phc{memory: hashMemoryKiB, time: hashIterations, threads: hashThreads}
	p.salt = make([]byte, hashSaltLen)
	if _, err := rand.Read(p.salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p.key = p.derive(password, hashKeyLen)
	return p.String(), nil
}

// VerifyPassword reports whether password matches the PHC string encoded.
// The comparison runs in constant time. A malformed hash is an error wrapping
// ErrInvalidHash.
func VerifyPassword(password, encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	candidate := p.derive(password, uint32(len(p.key))) //nolint:gosec // key length fits uint32
	return subtle.ConstantTimeCompare(p.key, candidate) == 1, nil
}

func parsePHC(encoded string) (phc, error) {
	var p phc

	fields := strings.Split(encoded, "$")
	// "", algorithm, version, parameters, salt, key
	if len(fields) != 6 || fields[0] != "" {
		return p, fmt.Errorf("%w: expected 6 $-separated fields", ErrInvalidHash)
	}
	if fields[1] != "argon2id" {
		return p, fmt.Errorf("%w: algorithm %q is not argon2id", ErrInvalidHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, fmt.Errorf("%w: unsupported version field %q", ErrInvalidHash, fields[2])
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, fmt.Errorf("%w: parameters %q: %w", ErrInvalidHash, fields[3], err)
	}
	if p.time == 0 || p.threads == 0 {
		return p, fmt.Errorf("%w: iterations and threads must be non-zero", ErrInvalidHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return p, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return p, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}
	return p, nil
}
