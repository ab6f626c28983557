package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/service"
)

func (s *Server) registerHabitRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createHabit",
		Method:        http.MethodPost,
		Path:          "/api/v1/habits",
		Summary:       "Create habit",
		Description:   "Creates a habit at the end of the user's list",
		Tags:          []string{"Habits"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateHabit)

	huma.Register(s.api, huma.Operation{
		OperationID: "listHabits",
		Method:      http.MethodGet,
		Path:        "/api/v1/habits",
		Summary:     "List habits",
		Description: "Returns the user's habits in display order",
		Tags:        []string{"Habits"},
		Security:    bearerAuth,
	}, s.handleListHabits)

	// Registered before /{id} so the static segment is documented first.
	huma.Register(s.api, huma.Operation{
		OperationID: "reorderHabits",
		Method:      http.MethodPatch,
		Path:        "/api/v1/habits/order",
		Summary:     "Reorder habits",
		Description: "Assigns position i to habit_ids[i]. Processing stops at the first rejected habit; earlier moves stay applied.",
		Tags:        []string{"Habits"},
		Security:    bearerAuth,
	}, s.handleReorderHabits)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHabit",
		Method:      http.MethodGet,
		Path:        "/api/v1/habits/{id}",
		Summary:     "Get habit",
		Tags:        []string{"Habits"},
		Security:    bearerAuth,
	}, s.handleGetHabit)

	huma.Register(s.api, huma.Operation{
		OperationID: "completeHabit",
		Method:      http.MethodPost,
		Path:        "/api/v1/habits/{id}/complete",
		Summary:     "Complete habit",
		Description: "Marks the habit done for the calendar day (UTC) of completed_at, or today when omitted. One completion per day.",
		Tags:        []string{"Habits"},
		Security:    bearerAuth,
	}, s.handleCompleteHabit)

	huma.Register(s.api, huma.Operation{
		OperationID: "editHabit",
		Method:      http.MethodPatch,
		Path:        "/api/v1/habits/{id}",
		Summary:     "Edit habit",
		Description: "Renames, recolors or changes the icon. Omitted fields are left unchanged.",
		Tags:        []string{"Habits"},
		Security:    bearerAuth,
	}, s.handleEditHabit)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteHabit",
		Method:        http.MethodDelete,
		Path:          "/api/v1/habits/{id}",
		Summary:       "Delete habit",
		Description:   "Soft-deletes the habit. Its history no longer counts towards stats.",
		Tags:          []string{"Habits"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteHabit)
}

// === DTOs ===

// HabitResponse is a habit as seen by its owner.
type HabitResponse struct {
	ID              string      `json:"id" doc:"Habit ID"`
	Name            string      `json:"name" doc:"Habit name"`
	Color           string      `json:"color" doc:"Display color"`
	Icon            string      `json:"icon" doc:"Display icon"`
	Order           int         `json:"order" doc:"Position in the user's list"`
	CurrentStreak   int         `json:"current_streak" doc:"Consecutive days up to the latest completion, 0 once a day is missed"`
	BestStreak      int         `json:"best_streak" doc:"Longest streak ever reached"`
	CompletedToday  bool        `json:"completed_today" doc:"Whether the habit is done for today (UTC)"`
	CompletionDates []time.Time `json:"completion_dates" doc:"Completion instants"`
	CreatedAt       time.Time   `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt       time.Time   `json:"updated_at" doc:"Last update timestamp"`
}

// HabitOutput wraps a habit for Huma.
type HabitOutput struct {
	Body HabitResponse
}

// HabitListResponse contains the user's habits.
type HabitListResponse struct {
	Habits []HabitResponse `json:"habits" doc:"Habits in display order"`
}

// HabitListOutput wraps the habit list for Huma.
type HabitListOutput struct {
	Body HabitListResponse
}

// HabitPathInput identifies a habit by path.
type HabitPathInput struct {
	ID string `path:"id" doc:"Habit ID"`
}

// CreateHabitRequest is the request body for creating a habit.
type CreateHabitRequest struct {
	Name  string `json:"name" doc:"Habit name"`
	Color string `json:"color,omitempty" doc:"Display color, BLUE when omitted"`
	Icon  string `json:"icon,omitempty" doc:"Display icon, SAVE when omitted"`
}

// CreateHabitInput wraps the create request for Huma.
type CreateHabitInput struct {
	Body CreateHabitRequest
}

// EditHabitRequest is the request body for editing a habit.
type EditHabitRequest struct {
	Name  *string `json:"name,omitempty" doc:"New name"`
	Color *string `json:"color,omitempty" doc:"New color"`
	Icon  *string `json:"icon,omitempty" doc:"New icon"`
}

// EditHabitInput wraps the edit request for Huma.
type EditHabitInput struct {
	ID   string `path:"id" doc:"Habit ID"`
	Body EditHabitRequest
}

// CompleteHabitRequest is the optional request body of a completion.
type CompleteHabitRequest struct {
	CompletedAt *time.Time `json:"completed_at,omitempty" doc:"When the habit was done. Defaults to now; may not fall on a future day."`
}

// CompleteHabitInput wraps the completion request for Huma.
type CompleteHabitInput struct {
	ID   string `path:"id" doc:"Habit ID"`
	Body *CompleteHabitRequest
}

// CompletionResponse is returned after a completion.
type CompletionResponse struct {
	Habit         HabitResponse `json:"habit" doc:"The updated habit"`
	CurrentStreak int           `json:"current_streak" doc:"Current streak after the completion"`
	BestStreak    int           `json:"best_streak" doc:"Best streak after the completion"`
}

// CompletionOutput wraps the completion response for Huma.
type CompletionOutput struct {
	Body CompletionResponse
}

// ReorderHabitsRequest is the request body for reordering.
type ReorderHabitsRequest struct {
	HabitIDs []string `json:"habit_ids" doc:"Habit IDs in their new order"`
}

// ReorderHabitsInput wraps the reorder request for Huma.
type ReorderHabitsInput struct {
	Body ReorderHabitsRequest
}

// ReorderResponse lists the habits that were moved.
type ReorderResponse struct {
	Applied []string `json:"applied" doc:"IDs whose position was updated"`
}

// ReorderOutput wraps the reorder response for Huma.
type ReorderOutput struct {
	Body ReorderResponse
}

// === Handlers ===

func (s *Server) handleCreateHabit(ctx context.Context, input *CreateHabitInput) (*HabitOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	habit, err := s.services.Habit.Create(ctx, userID, service.CreateHabitRequest{
		Name:  input.Body.Name,
		Color: domain.HabitColor(input.Body.Color),
		Icon:  domain.HabitIcon(input.Body.Icon),
	})
	if err != nil {
		return nil, err
	}

	return &HabitOutput{Body: toHabitResponse(habit)}, nil
}

func (s *Server) handleListHabits(ctx context.Context, _ *struct{}) (*HabitListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	habits, err := s.services.Habit.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := HabitListResponse{Habits: make([]HabitResponse, 0, len(habits))}
	for _, h := range habits {
		resp.Habits = append(resp.Habits, toHabitResponse(h))
	}
	return &HabitListOutput{Body: resp}, nil
}

func (s *Server) handleGetHabit(ctx context.Context, input *HabitPathInput) (*HabitOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	habit, err := s.services.Habit.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &HabitOutput{Body: toHabitResponse(habit)}, nil
}

func (s *Server) handleCompleteHabit(ctx context.Context, input *CompleteHabitInput) (*CompletionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var at *time.Time
	if input.Body != nil {
		at = input.Body.CompletedAt
	}

	result, err := s.services.Habit.Complete(ctx, userID, input.ID, at)
	if err != nil {
		return nil, err
	}

	return &CompletionOutput{
		Body: CompletionResponse{
			Habit:         toHabitResponse(result.Habit),
			CurrentStreak: result.CurrentStreak,
			BestStreak:    result.BestStreak,
		},
	}, nil
}

func (s *Server) handleEditHabit(ctx context.Context, input *EditHabitInput) (*HabitOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.EditHabitRequest{Name: input.Body.Name}
	if input.Body.Color != nil {
		c := domain.HabitColor(*input.Body.Color)
		req.Color = &c
	}
	if input.Body.Icon != nil {
		i := domain.HabitIcon(*input.Body.Icon)
		req.Icon = &i
	}

	habit, err := s.services.Habit.Edit(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &HabitOutput{Body: toHabitResponse(habit)}, nil
}

func (s *Server) handleReorderHabits(ctx context.Context, input *ReorderHabitsInput) (*ReorderOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Habit.Reorder(ctx, userID, input.Body.HabitIDs)
	if err != nil {
		// Report the partial progress alongside the failure.
		var domainErr *domainerrors.Error
		if result != nil && errors.As(err, &domainErr) {
			return nil, domainErr.WithDetails(map[string]any{
				"applied":   result.Applied,
				"failed_id": result.FailedID,
			})
		}
		return nil, err
	}

	return &ReorderOutput{Body: ReorderResponse{Applied: result.Applied}}, nil
}

func (s *Server) handleDeleteHabit(ctx context.Context, input *HabitPathInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Habit.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toHabitResponse(h *domain.Habit) HabitResponse {
	dates := h.CompletionDates
	if dates == nil {
		dates = []time.Time{}
	}
	return HabitResponse{
		ID:              h.ID,
		Name:            h.Name,
		Color:           string(h.Color),
		Icon:            string(h.Icon),
		Order:           h.Order,
		CurrentStreak:   h.CurrentStreak(),
		BestStreak:      h.BestStreak,
		CompletedToday:  h.CompletedOn(time.Now()),
		CompletionDates: dates,
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}
}
