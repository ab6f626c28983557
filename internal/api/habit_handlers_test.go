package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/service"
	"github.com/listenupapp/streakup-server/internal/store"
)

// brokenUpdateStore saves the first allowed habit updates and fails the rest.
type brokenUpdateStore struct {
	store.Store
	allowed int
}

func (b *brokenUpdateStore) UpdateHabit(ctx context.Context, h *domain.Habit) error {
	if b.allowed == 0 {
		return errors.New("badger: disk full")
	}
	b.allowed--
	return b.Store.UpdateHabit(ctx, h)
}

func (ts *testServer) createHabit(t *testing.T, token string, body map[string]any) HabitResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/habits", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, "create failed: %s", resp.Body.String())
	return decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data
}

func TestCreateHabit_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	first := ts.createHabit(t, token, map[string]any{"name": "Read"})
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Read", first.Name)
	assert.Equal(t, "BLUE", first.Color)
	assert.Equal(t, "SAVE", first.Icon)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 0, first.CurrentStreak)
	assert.Equal(t, 0, first.BestStreak)
	assert.False(t, first.CompletedToday)
	assert.Empty(t, first.CompletionDates)

	second := ts.createHabit(t, token, map[string]any{"name": "Run", "color": "GREEN", "icon": "RUNNING"})
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, "GREEN", second.Color)
	assert.Equal(t, "RUNNING", second.Icon)
}

func TestCreateHabit_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	for _, body := range []map[string]any{
		{"name": ""},
		{"name": "   "},
		{"name": "Read", "color": "BEIGE"},
		{"name": "Read", "icon": "ROCKET"},
	} {
		resp := ts.api.Post("/api/v1/habits", bearer(token), body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "body %v: %s", body, resp.Body.String())
		assert.Equal(t, "VALIDATION", decode[testErrorEnvelope](t, resp.Body.Bytes()).Code)
	}
}

func TestListAndGetHabits(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	read := ts.createHabit(t, token, map[string]any{"name": "Read"})
	ts.createHabit(t, token, map[string]any{"name": "Run"})

	resp := ts.api.Get("/api/v1/habits", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[testEnvelope[HabitListResponse]](t, resp.Body.Bytes()).Data
	require.Len(t, list.Habits, 2)
	assert.Equal(t, "Read", list.Habits[0].Name)
	assert.Equal(t, "Run", list.Habits[1].Name)

	resp = ts.api.Get("/api/v1/habits/"+read.ID, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, read.ID, decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data.ID)

	resp = ts.api.Get("/api/v1/habits/habit-missing", bearer(token))
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[testErrorEnvelope](t, resp.Body.Bytes()).Code)
}

func TestListHabits_EmptyIsArray(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	resp := ts.api.Get("/api/v1/habits", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"habits":[]`)
}

func TestCompleteHabit(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	habit := ts.createHabit(t, token, map[string]any{"name": "Read"})
	path := "/api/v1/habits/" + habit.ID + "/complete"

	// No body means now.
	resp := ts.api.Post(path, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	done := decode[testEnvelope[CompletionResponse]](t, resp.Body.Bytes()).Data
	assert.Equal(t, 1, done.CurrentStreak)
	assert.Equal(t, 1, done.BestStreak)
	assert.True(t, done.Habit.CompletedToday)
	assert.Len(t, done.Habit.CompletionDates, 1)

	// Same calendar day again.
	resp = ts.api.Post(path, bearer(token))
	require.Equal(t, http.StatusConflict, resp.Code)
	env := decode[testErrorEnvelope](t, resp.Body.Bytes())
	assert.Equal(t, string(domainerrors.CodeDuplicateCompletion), env.Code)
	assert.Contains(t, env.Details, "day")

	// Backfilling yesterday extends the run.
	yesterday := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	resp = ts.api.Post(path, bearer(token), map[string]any{"completed_at": yesterday})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	done = decode[testEnvelope[CompletionResponse]](t, resp.Body.Bytes()).Data
	assert.Equal(t, 2, done.CurrentStreak)
	assert.Equal(t, 2, done.BestStreak)
	assert.Len(t, done.Habit.CompletionDates, 2)
}

func TestCompleteHabit_FutureRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	habit := ts.createHabit(t, token, map[string]any{"name": "Read"})

	future := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)
	resp := ts.api.Post("/api/v1/habits/"+habit.ID+"/complete", bearer(token), map[string]any{"completed_at": future})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[testErrorEnvelope](t, resp.Body.Bytes()).Code)
}

func TestHabits_OwnershipHidesDetails(t *testing.T) {
	ts := setupTestServer(t)
	owner, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	intruder, _ := ts.registerAndLogin(t, "Joana", "joana@example.com")

	habit := ts.createHabit(t, owner, map[string]any{"name": "Secret diary"})

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"get", http.MethodGet, "/api/v1/habits/" + habit.ID, nil},
		{"complete", http.MethodPost, "/api/v1/habits/" + habit.ID + "/complete", nil},
		{"edit", http.MethodPatch, "/api/v1/habits/" + habit.ID, map[string]any{"name": "Mine now"}},
		{"delete", http.MethodDelete, "/api/v1/habits/" + habit.ID, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			args := []any{bearer(intruder)}
			if tc.body != nil {
				args = append(args, tc.body)
			}
			resp := ts.api.Do(tc.method, tc.path, args...)
			require.Equal(t, http.StatusForbidden, resp.Code)

			assert.NotContains(t, resp.Body.String(), "Secret diary")
			env := decode[testErrorEnvelope](t, resp.Body.Bytes())
			assert.Equal(t, string(domainerrors.CodeOwnership), env.Code)
			assert.Equal(t, domainerrors.OwnershipMessage, env.Message)
			assert.Empty(t, env.Details)
		})
	}

	// The owner's habit is untouched.
	resp := ts.api.Get("/api/v1/habits/"+habit.ID, bearer(owner))
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Secret diary", got.Name)
	assert.Empty(t, got.CompletionDates)
}

func TestEditHabit(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	habit := ts.createHabit(t, token, map[string]any{"name": "Read"})
	path := "/api/v1/habits/" + habit.ID

	resp := ts.api.Patch(path, bearer(token), map[string]any{"name": "Read more", "color": "PURPLE"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	edited := decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Read more", edited.Name)
	assert.Equal(t, "PURPLE", edited.Color)
	assert.Equal(t, "SAVE", edited.Icon)

	// Invalid icon with a valid name: nothing is written.
	resp = ts.api.Patch(path, bearer(token), map[string]any{"name": "Changed", "icon": "ROCKET"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get(path, bearer(token))
	assert.Equal(t, "Read more", decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data.Name)
}

func TestReorderHabits(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	a := ts.createHabit(t, token, map[string]any{"name": "A"})
	b := ts.createHabit(t, token, map[string]any{"name": "B"})
	c := ts.createHabit(t, token, map[string]any{"name": "C"})

	resp := ts.api.Patch("/api/v1/habits/order", bearer(token), map[string]any{
		"habit_ids": []string{c.ID, a.ID, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, decode[testEnvelope[ReorderResponse]](t, resp.Body.Bytes()).Data.Applied)

	resp = ts.api.Get("/api/v1/habits", bearer(token))
	list := decode[testEnvelope[HabitListResponse]](t, resp.Body.Bytes()).Data
	require.Len(t, list.Habits, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{list.Habits[0].Name, list.Habits[1].Name, list.Habits[2].Name})
}

func TestReorderHabits_PartialFailure(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	a := ts.createHabit(t, token, map[string]any{"name": "A"})
	b := ts.createHabit(t, token, map[string]any{"name": "B"})

	resp := ts.api.Patch("/api/v1/habits/order", bearer(token), map[string]any{
		"habit_ids": []string{b.ID, "habit-missing", a.ID},
	})
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	env := decode[testErrorEnvelope](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, []any{b.ID}, env.Details["applied"])
	assert.Equal(t, "habit-missing", env.Details["failed_id"])

	resp = ts.api.Get("/api/v1/habits/"+b.ID, bearer(token))
	assert.Equal(t, 0, decode[testEnvelope[HabitResponse]](t, resp.Body.Bytes()).Data.Order)
}

func TestReorderHabits_StoreFailureReportsProgress(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	a := ts.createHabit(t, token, map[string]any{"name": "A"})
	b := ts.createHabit(t, token, map[string]any{"name": "B"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.services.Habit = service.NewHabitService(&brokenUpdateStore{Store: ts.store, allowed: 1}, nil, logger)

	resp := ts.api.Patch("/api/v1/habits/order", bearer(token), map[string]any{
		"habit_ids": []string{b.ID, a.ID},
	})
	require.Equal(t, http.StatusInternalServerError, resp.Code, resp.Body.String())

	env := decode[testErrorEnvelope](t, resp.Body.Bytes())
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "reorder interrupted", env.Message)
	assert.NotContains(t, resp.Body.String(), "disk full")
	assert.Equal(t, []any{b.ID}, env.Details["applied"])
	assert.Equal(t, a.ID, env.Details["failed_id"])
}

func TestReorderHabits_Duplicates(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	a := ts.createHabit(t, token, map[string]any{"name": "A"})

	resp := ts.api.Patch("/api/v1/habits/order", bearer(token), map[string]any{
		"habit_ids": []string{a.ID, a.ID},
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[testErrorEnvelope](t, resp.Body.Bytes()).Code)
}

func TestDeleteHabit(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")
	habit := ts.createHabit(t, token, map[string]any{"name": "Read"})
	path := "/api/v1/habits/" + habit.ID

	resp := ts.api.Delete(path, bearer(token))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Empty(t, resp.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, bearer(token)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete(path, bearer(token)).Code)

	// The next habit takes the freed slot count.
	next := ts.createHabit(t, token, map[string]any{"name": "Run"})
	assert.Equal(t, 0, next.Order)
}

func TestGlobalStats(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "Maria", "maria@example.com")

	read := ts.createHabit(t, token, map[string]any{"name": "Read"})
	run := ts.createHabit(t, token, map[string]any{"name": "Run"})
	gone := ts.createHabit(t, token, map[string]any{"name": "Gone"})

	yesterday := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	for _, req := range []struct {
		id   string
		body []any
	}{
		{read.ID, nil},
		{read.ID, []any{map[string]any{"completed_at": yesterday}}},
		{run.ID, nil},
		{gone.ID, nil},
	} {
		args := append([]any{bearer(token)}, req.body...)
		resp := ts.api.Post("/api/v1/habits/"+req.id+"/complete", args...)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}
	require.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/habits/"+gone.ID, bearer(token)).Code)

	resp := ts.api.Get("/api/v1/stats", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	stats := decode[testEnvelope[GlobalStatsResponse]](t, resp.Body.Bytes()).Data
	assert.Equal(t, GlobalStatsResponse{
		TotalHabitsCreated:     2,
		TotalCompletions:       3,
		TotalCurrentStreakDays: 3,
		BestStreakAcrossHabits: 2,
	}, stats)
}

func TestGlobalStats_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/stats")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}
