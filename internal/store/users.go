package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/listenupapp/streakup-server/internal/domain"
)

// CreateUser creates a new account. The email must not be in use by any account.
func (s *BadgerStore) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.users.Create(ctx, user.ID, user); err != nil {
		return mapUserWriteError("create user", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *BadgerStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *BadgerStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.GetByIndex(ctx, "email", email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateUser replaces a stored user, moving the email index when it changed.
func (s *BadgerStore) UpdateUser(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user.ID, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		return mapUserWriteError("update user", err)
	}
	return nil
}

// ListUsers returns every account.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for u, err := range s.users.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// mapUserWriteError separates an email index conflict from a duplicate id.
func mapUserWriteError(op string, err error) error {
	var conflict *IndexConflictError
	switch {
	case errors.As(err, &conflict) && conflict.Index == "email":
		return ErrEmailExists
	case errors.Is(err, ErrAlreadyExists):
		return ErrUserExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
