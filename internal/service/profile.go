package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/store"
)

// ProfileService reads and updates the caller's own account.
type ProfileService struct {
	store  store.Store
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		logger: logger,
	}
}

// ProfileUpdate is a partial update. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// GetProfile returns the caller's account.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := requireUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return withoutHash(user), nil
}

// UpdateProfile applies a partial update to the caller's account.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Validate(update); err != nil {
		return nil, err
	}

	user, err := requireUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Rename(*update.Name)
	}

	if update.Email != nil && domain.NormalizeEmail(*update.Email) != user.Email {
		existing, err := s.store.GetUserByEmail(ctx, *update.Email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, domainerrors.AlreadyExists("email already registered")
		case err != nil && !errors.Is(err, store.ErrUserNotFound):
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.ChangeEmail(*update.Email)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("profile updated", "user_id", user.ID)
	return withoutHash(user), nil
}
