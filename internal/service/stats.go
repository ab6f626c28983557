package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/streakup-server/internal/domain"
	"github.com/listenupapp/streakup-server/internal/store"
)

// StatsService computes per-user summaries on demand.
type StatsService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(store store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetGlobalStats aggregates the user's non-deleted habits as of now.
func (s *StatsService) GetGlobalStats(ctx context.Context, userID string) (*domain.GlobalStats, error) {
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

	stats := domain.Aggregate(habits, s.now())
	return &stats, nil
}
