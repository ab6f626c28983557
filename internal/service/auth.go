package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/streakup-server/internal/auth"
	"github.com/listenupapp/streakup-server/internal/domain"
	domainerrors "github.com/listenupapp/streakup-server/internal/errors"
	"github.com/listenupapp/streakup-server/internal/id"
	"github.com/listenupapp/streakup-server/internal/store"
)

// invalidCredentialsMessage is shared by unknown email and wrong password.
const invalidCredentialsMessage = "invalid email or password"

// RegistrationPolicy lists names and email domains that may not register.
type RegistrationPolicy struct {
	BlockedNames   []string
	BlockedDomains []string
}

func (p RegistrationPolicy) check(name, email string) error {
	trimmed := strings.TrimSpace(name)
	for _, blocked := range p.BlockedNames {
		if strings.EqualFold(trimmed, strings.TrimSpace(blocked)) {
			return domainerrors.ValidationWithDetails("registration rejected", map[string]string{
				"name": fmt.Sprintf("name %q is not allowed", trimmed),
			})
		}
	}

	emailDomain := domain.EmailDomain(email)
	for _, blocked := range p.BlockedDomains {
		d := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(blocked), "@"))
		if d != "" && emailDomain == d {
			return domainerrors.ValidationWithDetails("registration rejected", map[string]string{
				"email": fmt.Sprintf("email domain %q is not allowed", d),
			})
		}
	}
	return nil
}

// AuthService handles account registration, login and token verification.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	policy       RegistrationPolicy
	events       Events
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	policy RegistrationPolicy,
	events Events,
	logger *slog.Logger,
) *AuthService {
	if events == nil {
		events = NoopEvents{}
	}
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		policy:       policy,
		events:       events,
		logger:       logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.policy.check(req.Name, req.Email); err != nil {
		s.logger.Info("registration blocked by policy", "email_domain", domain.EmailDomain(req.Email))
		return nil, err
	}

	// Early check for a friendlier error; the store's unique email index is authoritative.
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, domainerrors.AlreadyExists("email already registered")
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := domain.NewUser(userID, req.Name, req.Email, passwordHash)
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.events.UserRegistered()
	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return withoutHash(user), nil
}

// Login authenticates a user and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		s.logger.Debug("login failed: unknown email")
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		s.logger.Debug("login failed: wrong password", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
	}

	token, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        withoutHash(user),
	}, nil
}

// VerifyAccessToken validates a token and loads its user.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, nil, domainerrors.TokenExpired("access token expired")
	}
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid access token")
	}

	user, err := requireUser(ctx, s.store, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return withoutHash(user), claims, nil
}

// withoutHash returns a copy of u safe to hand to API callers.
func withoutHash(u *domain.User) *domain.User {
	c := *u
	c.PasswordHash = ""
	return &c
}
