package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/listenupapp/streakup-server/internal/domain"
	"github.com/listenupapp/streakup-server/internal/store"
)

const habitColumns = `id, owner_id, name, color, icon, best_streak, sort_order, is_deleted, created_at, updated_at`

type habitRow struct {
	ID         string `db:"id"`
	OwnerID    string `db:"owner_id"`
	Name       string `db:"name"`
	Color      string `db:"color"`
	Icon       string `db:"icon"`
	BestStreak int    `db:"best_streak"`
	SortOrder  int    `db:"sort_order"`
	IsDeleted  bool   `db:"is_deleted"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

type completionRow struct {
	HabitID     string `db:"habit_id"`
	CompletedAt string `db:"completed_at"`
}

// toDomain rebuilds the habit so its current streak is derived from the dates.
func (r habitRow) toDomain(completions []string) (*domain.Habit, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	dates := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		t, err := parseTime(c)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		dates = append(dates, t)
	}

	return domain.ReconstituteHabit(domain.Habit{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		Color:           domain.HabitColor(r.Color),
		Icon:            domain.HabitIcon(r.Icon),
		CompletionDates: dates,
		BestStreak:      r.BestStreak,
		Order:           r.SortOrder,
		IsDeleted:       r.IsDeleted,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}), nil
}

// SaveHabit inserts a habit and its completions in one transaction.
func (s *Store) SaveHabit(ctx context.Context, h *domain.Habit) error {
	if h.ID == "" {
		return fmt.Errorf("save habit: missing id")
	}

	return s.inTx(ctx, "save habit", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO habits (`+habitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.OwnerID, h.Name, string(h.Color), string(h.Icon),
			h.BestStreak, h.Order, boolToInt(h.IsDeleted),
			formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
		)
		if isUniqueViolation(err, "habits.id") {
			return store.ErrHabitExists
		}
		if err != nil {
			return err
		}
		return insertCompletions(ctx, tx, h)
	})
}

// GetHabit returns the habit with the given id, including soft-deleted ones.
func (s *Store) GetHabit(ctx context.Context, id string) (*domain.Habit, error) {
	var row habitRow
	err := s.db.GetContext(ctx, &row, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}

	byHabit, err := s.loadCompletions(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return row.toDomain(byHabit[id])
}

// ListHabitsByOwner returns the owner's visible habits in display order.
func (s *Store) ListHabitsByOwner(ctx context.Context, ownerID string) ([]*domain.Habit, error) {
	var rows []habitRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+habitColumns+` FROM habits
		 WHERE owner_id = ? AND is_deleted = 0
		 ORDER BY sort_order, created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.Habit{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	byHabit, err := s.loadCompletions(ctx, ids)
	if err != nil {
		return nil, err
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := r.toDomain(byHabit[r.ID])
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// CountHabitsByOwner counts the owner's visible habits.
func (s *Store) CountHabitsByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM habits WHERE owner_id = ? AND is_deleted = 0`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

// UpdateHabit overwrites the habit row and reconciles its completions.
func (s *Store) UpdateHabit(ctx context.Context, h *domain.Habit) error {
	return s.inTx(ctx, "update habit", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE habits
			 SET name = ?, color = ?, icon = ?, best_streak = ?, sort_order = ?, is_deleted = ?, updated_at = ?
			 WHERE id = ?`,
			h.Name, string(h.Color), string(h.Icon), h.BestStreak, h.Order,
			boolToInt(h.IsDeleted), formatTime(h.UpdatedAt), h.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrHabitNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_id = ?`, h.ID); err != nil {
			return err
		}
		return insertCompletions(ctx, tx, h)
	})
}

// SoftDeleteHabit flags a habit deleted. It reports false if there was nothing to delete.
func (s *Store) SoftDeleteHabit(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE habits SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete habit: %w", err)
	}
	return n > 0, nil
}

func insertCompletions(ctx context.Context, tx *sqlx.Tx, h *domain.Habit) error {
	for _, at := range h.CompletionDates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO habit_completions (habit_id, day, completed_at) VALUES (?, ?, ?)`,
			h.ID, int64(domain.CalendarDay(at)), formatTime(at),
		)
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
	}
	return nil
}

// loadCompletions fetches completion instants for many habits in one query.
func (s *Store) loadCompletions(ctx context.Context, habitIDs []string) (map[string][]string, error) {
	query, args, err := sqlx.In(
		`SELECT habit_id, completed_at FROM habit_completions WHERE habit_id IN (?) ORDER BY habit_id, day`,
		habitIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build completions query: %w", err)
	}

	var rows []completionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	out := make(map[string][]string, len(habitIDs))
	for _, r := range rows {
		out[r.HabitID] = append(out[r.HabitID], r.CompletedAt)
	}
	return out, nil
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
