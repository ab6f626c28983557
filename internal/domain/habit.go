// Package domain contains the core entities of the StreakUp server.
package domain

import (
	"strings"
	"time"

	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
)

// Habit is a recurring activity a user marks complete on calendar days.
//
// CurrentStreak is never stored. It is derived from CompletionDates when the
// habit is built (NewHabit, ReconstituteHabit) and whenever a completion is added.
type Habit struct {
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	Name            string      `json:"name"`
	Color           HabitColor  `json:"color"`
	Icon            HabitIcon   `json:"icon"`
	CompletionDates []time.Time `json:"completion_dates"`
	BestStreak      int         `json:"best_streak"`
	Order           int         `json:"order"`
	IsDeleted       bool        `json:"is_deleted"`

	currentStreak int
	now           func() time.Time
}

// HabitOption configures optional fields on NewHabit and ReconstituteHabit.
type HabitOption func(*habitOptions)

type habitOptions struct {
	color HabitColor
	icon  HabitIcon
	order int
	now   func() time.Time
}

// WithColor sets the habit color. An empty color keeps the default.
func WithColor(c HabitColor) HabitOption {
	return func(o *habitOptions) {
		if c != "" {
			o.color = c
		}
	}
}

// WithIcon sets the habit icon. An empty icon keeps the default.
func WithIcon(i HabitIcon) HabitOption {
	return func(o *habitOptions) {
		if i != "" {
			o.icon = i
		}
	}
}

// WithOrder sets the initial display position.
func WithOrder(order int) HabitOption {
	return func(o *habitOptions) {
		o.order = order
	}
}

// WithClock overrides the source of "now" used for streak computation.
func WithClock(now func() time.Time) HabitOption {
	return func(o *habitOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []HabitOption) habitOptions {
	o := habitOptions{
		color: DefaultHabitColor,
		icon:  DefaultHabitIcon,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewHabit creates a habit for ownerID with defaults applied and an empty history.
func NewHabit(ownerID, name string, opts ...HabitOption) (*Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("habit name cannot be empty")
	}

	o := buildOptions(opts)
	if !o.color.Valid() {
		return nil, domainerrors.Validationf("invalid habit color %q", o.color)
	}
	if !o.icon.Valid() {
		return nil, domainerrors.Validationf("invalid habit icon %q", o.icon)
	}
	if o.order < 0 {
		return nil, domainerrors.Validation("habit order cannot be negative")
	}

	now := o.now()
	h := &Habit{
		CreatedAt:       now,
		UpdatedAt:       now,
		OwnerID:         ownerID,
		Name:            name,
		Color:           o.color,
		Icon:            o.icon,
		CompletionDates: []time.Time{},
		Order:           o.order,
		now:             o.now,
	}

	return h, nil
}

// ReconstituteHabit rebuilds a habit from persisted data without re-running
// creation validation. The current streak is recomputed from the stored dates.
// Color, icon and order options are ignored; only WithClock applies.
func ReconstituteHabit(stored Habit, opts ...HabitOption) *Habit {
	o := buildOptions(opts)

	h := stored
	h.CompletionDates = append([]time.Time(nil), stored.CompletionDates...)
	if h.CompletionDates == nil {
		h.CompletionDates = []time.Time{}
	}
	if h.Color == "" {
		h.Color = DefaultHabitColor
	}
	if h.Icon == "" {
		h.Icon = DefaultHabitIcon
	}
	h.now = o.now
	h.refreshStreak()

	return &h
}

// CurrentStreak returns the streak derived at construction or at the last completion.
func (h *Habit) CurrentStreak() int {
	return h.currentStreak
}

// StreakAt recomputes the current streak as of the given instant.
func (h *Habit) StreakAt(now time.Time) int {
	return CurrentStreakAt(h.CompletionDates, now)
}

// CompletedOn reports whether a completion exists on the calendar day of t.
func (h *Habit) CompletedOn(t time.Time) bool {
	day := CalendarDay(t)
	for _, d := range h.CompletionDates {
		if CalendarDay(d) == day {
			return true
		}
	}
	return false
}

// MarkCompleted records a completion at the given instant.
// A second completion on the same calendar day is rejected without mutation.
func (h *Habit) MarkCompleted(at time.Time) error {
	if h.CompletedOn(at) {
		return domainerrors.DuplicateCompletion(CalendarDay(at).String())
	}

	h.CompletionDates = append(h.CompletionDates, at)
	h.refreshStreak()
	h.touch()
	return nil
}

// HabitPatch carries the optional fields of an edit. Nil fields are left untouched.
type HabitPatch struct {
	Name  *string
	Color *HabitColor
	Icon  *HabitIcon
}

// Edit applies a partial update. Every provided field is validated before any is written.
func (h *Habit) Edit(p HabitPatch) error {
	var name string
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return domainerrors.Validation("habit name cannot be empty")
		}
	}
	if p.Color != nil && !p.Color.Valid() {
		return domainerrors.Validationf("invalid habit color %q", *p.Color)
	}
	if p.Icon != nil && !p.Icon.Valid() {
		return domainerrors.Validationf("invalid habit icon %q", *p.Icon)
	}

	if p.Name == nil && p.Color == nil && p.Icon == nil {
		return nil
	}

	if p.Name != nil {
		h.Name = name
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	h.touch()
	return nil
}

// SetOrder moves the habit to a new display position.
func (h *Habit) SetOrder(order int) error {
	if order < 0 {
		return domainerrors.Validation("habit order cannot be negative")
	}
	h.Order = order
	h.touch()
	return nil
}

// SoftDelete flags the habit as deleted. Calling it again has no effect.
func (h *Habit) SoftDelete() {
	if h.IsDeleted {
		return
	}
	h.IsDeleted = true
	h.touch()
}

// OwnedBy reports whether userID owns the habit.
func (h *Habit) OwnedBy(userID string) bool {
	return h.OwnerID == userID
}

func (h *Habit) refreshStreak() {
	h.currentStreak = CurrentStreakAt(h.CompletionDates, h.clock())
	if h.currentStreak > h.BestStreak {
		h.BestStreak = h.currentStreak
	}
}

func (h *Habit) touch() {
	h.UpdatedAt = h.clock()
}

func (h *Habit) clock() time.Time {
	if h.now == nil {
		return time.Now()
	}
	return h.now()
}
