package domain

import "time"

// GlobalStats summarizes a user's habits. It is computed on demand and never stored.
type GlobalStats struct {
	TotalHabitsCreated     int `json:"total_habits_created"`
	TotalCompletions       int `json:"total_completions"`
	TotalCurrentStreakDays int `json:"total_current_streak_days"`
	BestStreakAcrossHabits int `json:"best_streak_across_habits"`
}

// Aggregate reduces habits into GlobalStats. Current streaks are evaluated as of now.
// Callers exclude soft-deleted habits beforehand if they should not count.
func Aggregate(habits []*Habit, now time.Time) GlobalStats {
	var stats GlobalStats
	stats.TotalHabitsCreated = len(habits)

	for _, h := range habits {
		stats.TotalCompletions += len(h.CompletionDates)
		stats.TotalCurrentStreakDays += h.StreakAt(now)
		if h.BestStreak > stats.BestStreakAcrossHabits {
			stats.BestStreakAcrossHabits = h.BestStreak
		}
	}

	return stats
}
