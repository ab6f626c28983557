package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getGlobalStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get global stats",
		Description: "Aggregates the user's habits: totals, current streak days and best streak",
		Tags:        []string{"Stats"},
		Security:    bearerAuth,
	}, s.handleGetGlobalStats)
}

// GlobalStatsResponse summarizes the user's habits.
type GlobalStatsResponse struct {
	TotalHabitsCreated     int `json:"total_habits_created" doc:"Number of habits that are not deleted"`
	TotalCompletions       int `json:"total_completions" doc:"Completions across those habits"`
	TotalCurrentStreakDays int `json:"total_current_streak_days" doc:"Sum of current streaks"`
	BestStreakAcrossHabits int `json:"best_streak_across_habits" doc:"Highest best streak"`
}

// GlobalStatsOutput wraps the stats for Huma.
type GlobalStatsOutput struct {
	Body GlobalStatsResponse
}

func (s *Server) handleGetGlobalStats(ctx context.Context, _ *struct{}) (*GlobalStatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetGlobalStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GlobalStatsOutput{
		Body: GlobalStatsResponse{
			TotalHabitsCreated:     stats.TotalHabitsCreated,
			TotalCompletions:       stats.TotalCompletions,
			TotalCurrentStreakDays: stats.TotalCurrentStreakDays,
			BestStreakAcrossHabits: stats.BestStreakAcrossHabits,
		},
	}, nil
}
