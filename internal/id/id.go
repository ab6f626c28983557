// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entities the server stores.
const (
	PrefixHabit = "habit"
	PrefixUser  = "user"
)

// Generate returns prefix-nanoid, e.g. "habit-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v looks like an id generated with prefix.
func HasPrefix(v, prefix string) bool {
	return len(v) > len(prefix)+1 && v[:len(prefix)+1] == prefix+"-"
}
