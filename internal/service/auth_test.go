package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/listenupapp/streakup-server/internal/auth"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/id"
	"github.com/listenupapp/streakup-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAuthTest creates an auth service with temporary storage and a fresh key.
func setupAuthTest(t *testing.T, tokenDuration time.Duration) (*AuthService, *store.BadgerStore, *recordingEvents) {
	t.Helper()

	s := setupTestStore(t)

	keyDir, err := os.MkdirTemp("", "streakup-auth-key-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(keyDir) })

	authKey, err := auth.LoadOrGenerateKey(keyDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(authKey, tokenDuration)
	require.NoError(t, err)

	policy := RegistrationPolicy{
		BlockedNames:   []string{"admin"},
		BlockedDomains: []string{"@dominio-proibido.com"},
	}
	events := &recordingEvents{}
	return NewAuthService(s, tokenService, policy, events, testLogger()), s, events
}

func TestAuthService_Register(t *testing.T) {
	svc, s, events := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Name:     "  Maria  ",
		Email:    "Maria@Example.COM",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(user.ID, id.PrefixUser))
	assert.Equal(t, "Maria", user.Name)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	stored, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	assert.Equal(t, 1, events.registered)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Other", Email: "MARIA@example.com", Password: "secret2"})
	requireCode(t, err, domainerrors.CodeAlreadyExists)
}

func TestAuthService_Register_Rejected(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short name", RegisterRequest{Name: "Al", Email: "al@example.com", Password: "secret1"}},
		{"bad email", RegisterRequest{Name: "Alice", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "12345"}},
		{"blocked name", RegisterRequest{Name: "Admin", Email: "boss@example.com", Password: "secret1"}},
		{"blocked domain", RegisterRequest{Name: "Alice", Email: "alice@Dominio-Proibido.com", Password: "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			derr := requireCode(t, err, domainerrors.CodeValidation)
			assert.NotNil(t, derr.Details)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "MARIA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.Equal(t, registered.ID, resp.User.ID)
	assert.Empty(t, resp.User.PasswordHash)

	user, claims, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Email: "maria@example.com", Password: "nope123"})
	wp := requireCode(t, wrongPassword, domainerrors.CodeInvalidCredentials)

	_, unknownEmail := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	ue := requireCode(t, unknownEmail, domainerrors.CodeInvalidCredentials)

	// Both failures look the same to the caller.
	assert.Equal(t, wp.Message, ue.Message)
}

func TestAuthService_VerifyAccessToken_Invalid(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)

	_, _, err := svc.VerifyAccessToken(context.Background(), "v4.local.garbage")
	requireCode(t, err, domainerrors.CodeUnauthorized)
}

func TestAuthService_VerifyAccessToken_Expired(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Millisecond)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, _, err = svc.VerifyAccessToken(ctx, resp.AccessToken)
	requireCode(t, err, domainerrors.CodeTokenExpired)
}

func TestAuthService_VerifyAccessToken_ForeignKey(t *testing.T) {
	svc, _, _ := setupAuthTest(t, time.Hour)
	other, _, _ := setupAuthTest(t, time.Hour)
	ctx := context.Background()

	_, err := other.Register(ctx, RegisterRequest{Name: "Maria", Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)
	resp, err := other.Login(ctx, LoginRequest{Email: "maria@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.VerifyAccessToken(ctx, resp.AccessToken)
	requireCode(t, err, domainerrors.CodeUnauthorized)
}
