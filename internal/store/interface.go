// Package store defines the persistence contract of the StreakUp server and
// its default Badger implementation. The SQL implementation lives in store/sqlite.
package store

import (
	"context"

	"github.com/listenupapp/streakup-server/internal/domain"
)

// HabitStore persists habits. Lookups return habits rebuilt with
// domain.ReconstituteHabit, so the current streak is always derived from the dates.
type HabitStore interface {
	// SaveHabit inserts a new habit. The ID must already be assigned.
	SaveHabit(ctx context.Context, habit *domain.Habit) error
	// GetHabit returns the habit even when soft-deleted; callers decide visibility.
	GetHabit(ctx context.Context, id string) (*domain.Habit, error)
	// ListHabitsByOwner returns the owner's non-deleted habits sorted by order, then creation time.
	ListHabitsByOwner(ctx context.Context, ownerID string) ([]*domain.Habit, error)
	// CountHabitsByOwner counts the owner's non-deleted habits.
	CountHabitsByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateHabit(ctx context.Context, habit *domain.Habit) error
	// SoftDeleteHabit flags the habit deleted. It reports false when the habit
	// does not exist or was already deleted.
	SoftDeleteHabit(ctx context.Context, id string) (bool, error)
}

// UserStore persists accounts. Email lookups are case-insensitive.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	HabitStore
	UserStore

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*BadgerStore)(nil)
)
