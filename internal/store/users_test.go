package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/streakup-server/internal/domain"
	"github.com/listenupapp/streakup-server/internal/store"
)

func TestCreateUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	user := domain.NewUser("user-1", "Ana", "ana@example.com", "hash")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestCreateUser_DuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-1", "Ana", "ana@example.com", "hash")))

	err := s.CreateUser(ctx, domain.NewUser("user-1", "Bia", "bia@example.com", "hash"))
	assert.ErrorIs(t, err, store.ErrUserExists)
}

func TestCreateUser_DuplicateEmailIgnoresCase(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-1", "Ana", "ana@example.com", "hash")))

	dup := &domain.User{ID: "user-2", Name: "Other", Email: "ANA@Example.com"}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUser_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetUser(context.Background(), "user-missing")

	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-1", "Ana", "ana@example.com", "hash")))

	got, err := s.GetUserByEmail(ctx, "  ANA@EXAMPLE.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUpdateUser_ChangeEmail(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	user := domain.NewUser("user-1", "Ana", "ana@example.com", "hash")
	require.NoError(t, s.CreateUser(ctx, user))

	user.ChangeEmail("ana.maria@example.com")
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err := s.GetUserByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	got, err := s.GetUserByEmail(ctx, "ana.maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-1", "Ana", "ana@example.com", "hash")))
	bia := domain.NewUser("user-2", "Bia", "bia@example.com", "hash")
	require.NoError(t, s.CreateUser(ctx, bia))

	bia.ChangeEmail("ana@example.com")
	err := s.UpdateUser(ctx, bia)

	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUpdateUser_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.UpdateUser(context.Background(), domain.NewUser("user-missing", "Ana", "ana@example.com", "hash"))

	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-1", "Ana", "ana@example.com", "hash")))
	require.NoError(t, s.CreateUser(ctx, domain.NewUser("user-2", "Bia", "bia@example.com", "hash")))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestPing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}
