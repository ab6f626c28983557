package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestStore creates a badger store in a temporary directory.
func setupTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "streakup-service-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})
	return s
}

func seedUser(t *testing.T, s store.Store, id, email string) *domain.User {
	t.Helper()
	u := domain.NewUser(id, "Test "+id, email, "hash")
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func requireCode(t *testing.T, err error, code domainerrors.Code) *domainerrors.Error {
	t.Helper()
	require.Error(t, err)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, code, derr.Code, "error: %v", err)
	return derr
}

type recordingEvents struct {
	mu         sync.Mutex
	registered int
	created    int
	completed  []int
	deleted    int
}

func (e *recordingEvents) UserRegistered() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered++
}

func (e *recordingEvents) HabitCreated() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created++
}

func (e *recordingEvents) HabitCompleted(streak int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, streak)
}

func (e *recordingEvents) HabitDeleted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted++
}

// failingUpdateStore lets the first allowed habit updates through and then
// fails with err. onLimit, when set, runs once the allowance is used up.
type failingUpdateStore struct {
	store.Store
	allowed int
	err     error
	onLimit func()
}

func (f *failingUpdateStore) UpdateHabit(ctx context.Context, h *domain.Habit) error {
	if f.allowed > 0 {
		f.allowed--
		if err := f.Store.UpdateHabit(ctx, h); err != nil {
			return err
		}
		if f.allowed == 0 && f.onLimit != nil {
			f.onLimit()
		}
		return nil
	}
	return f.err
}
