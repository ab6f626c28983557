// Package service holds the application use cases. Services take the caller's
// user id, check the account still exists, delegate rules to the domain and persist.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/store"
	"github.com/listenupapp/streakup-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// Events receives lifecycle notifications. The metrics package implements it
// with Prometheus counters.
type Events interface {
	UserRegistered()
	HabitCreated()
	HabitCompleted(currentStreak int)
	HabitDeleted()
}

// NoopEvents discards every notification.
type NoopEvents struct{}

// UserRegistered is a no-op.
func (NoopEvents) UserRegistered() {}

// HabitCreated is a no-op.
func (NoopEvents) HabitCreated() {}

// HabitCompleted is a no-op.
func (NoopEvents) HabitCompleted(int) {}

// HabitDeleted is a no-op.
func (NoopEvents) HabitDeleted() {}

// requireUser loads the acting user. A token for an account that no longer
// exists is treated as unauthenticated.
func requireUser(ctx context.Context, users store.UserStore, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}

	u, err := users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, domainerrors.Unauthorized("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
