package api

import (
	"github.com/listenupapp/streakup-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Habit   *service.HabitService
	Stats   *service.StatsService
	Profile *service.ProfileService
}
