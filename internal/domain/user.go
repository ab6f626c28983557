package domain

import (
	"strings"
	"time"
)

// User is an account that owns habits.
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Filter from API responses
}

// NewUser creates a user with timestamps initialized. The email is normalized.
func NewUser(id, name, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		CreatedAt:    now,
		UpdatedAt:    now,
		ID:           id,
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}
}

// Rename changes the display name.
func (u *User) Rename(name string) {
	u.Name = strings.TrimSpace(name)
	u.UpdatedAt = time.Now()
}

// ChangeEmail sets a new (normalized) email address.
func (u *User) ChangeEmail(email string) {
	u.Email = NormalizeEmail(email)
	u.UpdatedAt = time.Now()
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after the last "@", lowercased. Empty if there is none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
