package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/listenupapp/streakup-server/internal/domain"
)

// SaveHabit inserts a new habit.
func (s *BadgerStore) SaveHabit(ctx context.Context, habit *domain.Habit) error {
	if habit.ID == "" {
		return fmt.Errorf("save habit: missing id")
	}
	if err := s.habits.Create(ctx, habit.ID, habit); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrHabitExists
		}
		return fmt.Errorf("save habit: %w", err)
	}
	return nil
}

// GetHabit returns the habit with the given id, including soft-deleted ones.
func (s *BadgerStore) GetHabit(ctx context.Context, id string) (*domain.Habit, error) {
	stored, err := s.habits.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return domain.ReconstituteHabit(*stored), nil
}

// ListHabitsByOwner returns the owner's visible habits in display order.
func (s *BadgerStore) ListHabitsByOwner(ctx context.Context, ownerID string) ([]*domain.Habit, error) {
	stored, err := s.habits.ListByIndex(ctx, "owner", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	habits := make([]*domain.Habit, 0, len(stored))
	for _, h := range stored {
		if h.IsDeleted {
			continue
		}
		habits = append(habits, domain.ReconstituteHabit(*h))
	}
	SortHabits(habits)
	return habits, nil
}

// CountHabitsByOwner counts the owner's visible habits.
func (s *BadgerStore) CountHabitsByOwner(ctx context.Context, ownerID string) (int, error) {
	stored, err := s.habits.ListByIndex(ctx, "owner", ownerID)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}

	n := 0
	for _, h := range stored {
		if !h.IsDeleted {
			n++
		}
	}
	return n, nil
}

// UpdateHabit replaces a stored habit.
func (s *BadgerStore) UpdateHabit(ctx context.Context, habit *domain.Habit) error {
	if err := s.habits.Update(ctx, habit.ID, habit); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrHabitNotFound
		}
		return fmt.Errorf("update habit: %w", err)
	}
	return nil
}

// SoftDeleteHabit flags a habit deleted. It reports false if there was nothing to delete.
func (s *BadgerStore) SoftDeleteHabit(ctx context.Context, id string) (bool, error) {
	h, err := s.GetHabit(ctx, id)
	if errors.Is(err, ErrHabitNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if h.IsDeleted {
		return false, nil
	}

	h.SoftDelete()
	if err := s.UpdateHabit(ctx, h); err != nil {
		return false, err
	}
	return true, nil
}

// SortHabits orders habits by Order, then CreatedAt, then ID.
func SortHabits(habits []*domain.Habit) {
	slices.SortStableFunc(habits, func(a, b *domain.Habit) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
