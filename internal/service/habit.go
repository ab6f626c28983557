package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/id"
	"github.com/listenupapp/streakup-server/internal/store"
)

// HabitService implements the habit use cases for a single authenticated user.
type HabitService struct {
	store  store.Store
	events Events
	logger *slog.Logger
	now    func() time.Time
}

// NewHabitService creates a habit service. A nil events sink is replaced by NoopEvents.
func NewHabitService(store store.Store, events Events, logger *slog.Logger) *HabitService {
	if events == nil {
		events = NoopEvents{}
	}
	return &HabitService{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateHabitRequest is the input of Create. Color and icon are optional.
type CreateHabitRequest struct {
	Name  string            `json:"name" validate:"required,max=100"`
	Color domain.HabitColor `json:"color,omitempty" validate:"omitempty,habit_color"`
	Icon  domain.HabitIcon  `json:"icon,omitempty" validate:"omitempty,habit_icon"`
}

// EditHabitRequest is the input of Edit. Nil fields are left unchanged.
type EditHabitRequest struct {
	Name  *string            `json:"name,omitempty" validate:"omitempty,max=100"`
	Color *domain.HabitColor `json:"color,omitempty" validate:"omitempty,habit_color"`
	Icon  *domain.HabitIcon  `json:"icon,omitempty" validate:"omitempty,habit_icon"`
}

// CompletionResult is returned by Complete.
type CompletionResult struct {
	Habit         *domain.Habit `json:"habit"`
	CurrentStreak int           `json:"current_streak"`
	BestStreak    int           `json:"best_streak"`
}

// ReorderResult reports which habits were moved before processing stopped.
type ReorderResult struct {
	Applied  []string `json:"applied"`
	FailedID string   `json:"failed_id,omitempty"`
}

// Create adds a habit at the end of the user's list.
func (s *HabitService) Create(ctx context.Context, userID string, req CreateHabitRequest) (*domain.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	count, err := s.store.CountHabitsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count habits: %w", err)
	}

	habit, err := domain.NewHabit(userID, req.Name,
		domain.WithColor(req.Color),
		domain.WithIcon(req.Icon),
		domain.WithOrder(count),
		domain.WithClock(s.now),
	)
	if err != nil {
		return nil, err
	}

	habit.ID, err = id.Generate(id.PrefixHabit)
	if err != nil {
		return nil, fmt.Errorf("generate habit ID: %w", err)
	}

	if err := s.store.SaveHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	s.events.HabitCreated()
	s.logger.Info("habit created",
		"habit_id", habit.ID,
		"user_id", userID,
		"order", habit.Order,
	)

	return habit, nil
}

// List returns the user's non-deleted habits in display order.
func (s *HabitService) List(ctx context.Context, userID string) ([]*domain.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	habits, err := s.store.ListHabitsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	for i, h := range habits {
		habits[i] = s.onClock(h)
	}
	return habits, nil
}

// Get returns one of the user's habits.
func (s *HabitService) Get(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	return s.loadOwned(ctx, userID, habitID)
}

// Complete marks the habit done on the calendar day of at (now when nil).
// A completion dated after today is rejected.
func (s *HabitService) Complete(ctx context.Context, userID, habitID string, at *time.Time) (*CompletionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	now := s.now()
	completedAt := now
	if at != nil {
		completedAt = *at
		if domain.CalendarDay(completedAt) > domain.CalendarDay(now) {
			return nil, domainerrors.Validation("completion date cannot be in the future")
		}
	}

	habit, err := s.loadOwned(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if err := habit.MarkCompleted(completedAt); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateCompletion) {
			s.logger.Debug("duplicate completion rejected",
				"habit_id", habitID,
				"user_id", userID,
				"day", domain.CalendarDay(completedAt).String(),
			)
		}
		return nil, err
	}

	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("complete habit: %w", err)
	}

	s.events.HabitCompleted(habit.CurrentStreak())
	s.logger.Info("habit completed",
		"habit_id", habit.ID,
		"user_id", userID,
		"current_streak", habit.CurrentStreak(),
		"best_streak", habit.BestStreak,
	)

	return &CompletionResult{
		Habit:         habit,
		CurrentStreak: habit.CurrentStreak(),
		BestStreak:    habit.BestStreak,
	}, nil
}

// Edit renames, recolors or changes the icon of a habit.
func (s *HabitService) Edit(ctx context.Context, userID, habitID string, req EditHabitRequest) (*domain.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	habit, err := s.loadOwned(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if err := habit.Edit(domain.HabitPatch{Name: req.Name, Color: req.Color, Icon: req.Icon}); err != nil {
		return nil, err
	}

	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("edit habit: %w", err)
	}

	s.logger.Info("habit edited", "habit_id", habit.ID, "user_id", userID)
	return habit, nil
}

// Reorder assigns order i to habitIDs[i]. Each habit is saved on its own; on the
// first failure processing stops, earlier moves stay applied and the result
// names what was applied and which id failed.
func (s *HabitService) Reorder(ctx context.Context, userID string, habitIDs []string) (*ReorderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(habitIDs))
	for _, hid := range habitIDs {
		if hid == "" {
			return nil, domainerrors.Validation("habit ids cannot be empty")
		}
		if _, dup := seen[hid]; dup {
			return nil, domainerrors.ValidationWithDetails("duplicate habit id in order", map[string]string{"habit_id": hid})
		}
		seen[hid] = struct{}{}
	}

	result := &ReorderResult{Applied: make([]string, 0, len(habitIDs))}
	for i, hid := range habitIDs {
		if err := ctx.Err(); err != nil {
			result.FailedID = hid
			return result, domainerrors.Wrap(err, domainerrors.CodeInternal, "reorder interrupted")
		}

		if err := s.moveHabit(ctx, userID, hid, i); err != nil {
			result.FailedID = hid
			var domainErr *domainerrors.Error
			if !errors.As(err, &domainErr) {
				err = domainerrors.Wrap(err, domainerrors.CodeInternal, "reorder interrupted")
			}
			s.logger.Warn("reorder stopped",
				"user_id", userID,
				"habit_id", hid,
				"applied", len(result.Applied),
				"error", err,
			)
			return result, err
		}
		result.Applied = append(result.Applied, hid)
	}

	s.logger.Info("habits reordered", "user_id", userID, "count", len(result.Applied))
	return result, nil
}

func (s *HabitService) moveHabit(ctx context.Context, userID, habitID string, order int) error {
	habit, err := s.loadOwned(ctx, userID, habitID)
	if err != nil {
		return err
	}
	if habit.Order == order {
		return nil
	}
	if err := habit.SetOrder(order); err != nil {
		return err
	}
	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return fmt.Errorf("reorder habit: %w", err)
	}
	return nil
}

// Delete soft-deletes a habit. Deleting it again reports NotFound.
func (s *HabitService) Delete(ctx context.Context, userID, habitID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := requireUser(ctx, s.store, userID); err != nil {
		return err
	}

	if _, err := s.loadOwned(ctx, userID, habitID); err != nil {
		return err
	}

	deleted, err := s.store.SoftDeleteHabit(ctx, habitID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if !deleted {
		return domainerrors.NotFound("habit not found")
	}

	s.events.HabitDeleted()
	s.logger.Info("habit deleted", "habit_id", habitID, "user_id", userID)
	return nil
}

// loadOwned fetches a visible habit and checks ownership. Missing and
// soft-deleted habits are NotFound; a habit of another user is an Ownership
// error carrying no detail about the habit.
func (s *HabitService) loadOwned(ctx context.Context, userID, habitID string) (*domain.Habit, error) {
	habit, err := s.store.GetHabit(ctx, habitID)
	if errors.Is(err, store.ErrHabitNotFound) {
		return nil, domainerrors.NotFound("habit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	if habit.IsDeleted {
		return nil, domainerrors.NotFound("habit not found")
	}
	if !habit.OwnedBy(userID) {
		return nil, domainerrors.Ownership()
	}
	return s.onClock(habit), nil
}

// onClock rebuilds a loaded habit on the service clock so its streak and any
// later completion agree with the day the service considers today.
func (s *HabitService) onClock(h *domain.Habit) *domain.Habit {
	return domain.ReconstituteHabit(*h, domain.WithClock(s.now))
}
