// Package auth handles password hashing and PASETO access tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// KeyFileName is the file under the data directory holding the token key.
const KeyFileName = "auth.key"

// LoadOrGenerateKey returns the hex-encoded PASETO v4 key stored in dir/auth.key.
// A new key is generated and written with 0600 permissions when the file is missing.
func LoadOrGenerateKey(dir string) (string, error) {
	keyPath := filepath.Join(dir, KeyFileName)

	//#nosec G304 -- path is built from the configured data directory
	raw, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		keyHex := strings.TrimSpace(string(raw))
		if err := validateKeyHex(keyHex); err != nil {
			return "", fmt.Errorf("%s: %w", keyPath, err)
		}
		return keyHex, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keyBytesSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate auth key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("save auth key: %w", err)
	}

	return keyHex, nil
}

func validateKeyHex(keyHex string) error {
	if len(keyHex) != keyHexSize {
		return fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		return fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}
	return nil
}
