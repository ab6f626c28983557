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

// MaxPasswordLength caps the input to the hash function.
const MaxPasswordLength = 1024

// ErrEmptyPassword and ErrPasswordTooLong are returned by HashPassword.
var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

var errMalformedHash = errors.New("malformed password hash")

// passwordParams are the argon2id cost settings. Stored hashes carry their
// own, so raising the defaults does not invalidate existing accounts.
type passwordParams struct {
	memoryKiB uint32
	passes    uint32
	lanes     uint8
	saltLen   int
	keyLen    uint32
}

var defaultPasswordParams = passwordParams{
	memoryKiB: 64 * 1024,
	passes:    3,
	lanes:     4,
	saltLen:   16,
	keyLen:    32,
}

func (p passwordParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.passes, p.memoryKiB, p.lanes, p.keyLen)
}

// HashPassword returns the argon2id hash of password in PHC string form:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>.
func HashPassword(password string) (string, error) {
	switch {
	case password == "":
		return "", ErrEmptyPassword
	case len(password) > MaxPasswordLength:
		return "", ErrPasswordTooLong
	}

	p := defaultPasswordParams
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memoryKiB, p.passes, p.lanes,
		b64.EncodeToString(salt), b64.EncodeToString(p.derive(password, salt)),
	), nil
}

// VerifyPassword reports whether password matches encoded. Oversized input
// and unreadable hashes both count as a mismatch, never as an error.
func VerifyPassword(encoded, password string) (bool, error) {
	if len(password) > MaxPasswordLength {
		return false, nil
	}

	p, salt, key, err := parsePHC(encoded)
	if err != nil {
		return false, nil //nolint:nilerr // unreadable hash never matches
	}

	return subtle.ConstantTimeCompare(key, p.derive(password, salt)) == 1, nil
}

func parsePHC(encoded string) (p passwordParams, salt, key []byte, err error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memoryKiB, &p.passes, &p.lanes); err != nil {
		return p, nil, nil, errMalformedHash
	}

	b64 := base64.RawStdEncoding
	if salt, err = b64.DecodeString(fields[4]); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if key, err = b64.DecodeString(fields[5]); err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedHash
	}

	p.saltLen = len(salt)
	p.keyLen = uint32(len(key)) //nolint:gosec // decoded from a short PHC field
	return p, salt, key, nil
}
