package service

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/cache"
	"kidotrendz/storefront/internal/config"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
	"kidotrendz/storefront/internal/security"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]any) (models.User, error)
	ReplaceCart(ctx context.Context, id string, items []models.CartRef) error
}

type RefreshTokens interface {
	Save(ctx context.Context, userID string, hash []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

type AuthService struct {
	users  UserStore
	tokens RefreshTokens
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users UserStore, tokens RefreshTokens, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return AuthResult{}, apierr.InvalidArgument("name, email and password required")
	}
	if !emailPattern.MatchString(input.Email) {
		return AuthResult{}, apierr.InvalidArgument("invalid email format")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, apierr.InvalidArgument("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         models.UserRoleCustomer,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return AuthResult{}, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apierr.Unauthenticated("invalid credentials")
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apierr.Unauthenticated("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// issueTokens mints an access token and a refresh token, persisting the
// refresh hash so logout and rotation revoke prior tokens.
func (s *AuthService) issueTokens(ctx context.Context, user models.User) (AuthResult, error) {
	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		string(user.Role),
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}
	// The cookie value carries the user id so refresh can locate the
	// stored hash without a bearer token.
	refreshToken = user.ID + "." + refreshToken

	if err := s.tokens.Save(ctx, user.ID, refreshHash); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh validates the presented refresh token against the stored hash and
// mints a new access token. The refresh token itself is not rotated; its
// stored hash keeps its original TTL.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, raw, found := strings.Cut(refreshToken, ".")
	if !found || userID == "" || raw == "" {
		return "", apierr.Unauthorized("malformed refresh token")
	}

	stored, err := s.tokens.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrTokenNotFound) {
			return "", apierr.Unauthorized("refresh token expired")
		}
		return "", err
	}

	if !bytes.Equal(stored, security.HashRefreshToken(raw)) {
		return "", apierr.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apierr.Unauthorized("unknown user")
		}
		return "", err
	}

	return security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		string(user.Role),
		s.cfg.Security.JWTAccessTTL,
	)
}

// Logout revokes the stored refresh token. Best-effort: the client clears
// its session regardless of the outcome.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.Delete(ctx, userID)
}

var profileFields = map[string]string{
	"name":         "name",
	"phone":        "phone",
	"address":      "address",
	"profilePhoto": "profile_photo",
}

// UpdateProfile applies the provided fields. Email is immutable; unknown
// fields are rejected rather than silently dropped.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, updates map[string]any) (models.User, error) {
	fields := make(map[string]any, len(updates))
	for key, val := range updates {
		path, ok := profileFields[key]
		if !ok {
			return models.User{}, apierr.InvalidArgument("field not updatable: " + key)
		}
		str, ok := val.(string)
		if !ok {
			return models.User{}, apierr.InvalidArgument("field must be a string: " + key)
		}
		fields[path] = str
	}
	if len(fields) == 0 {
		return models.User{}, apierr.InvalidArgument("no updatable fields provided")
	}

	user, err := s.users.UpdateProfile(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apierr.NotFound("user not found")
		}
		return models.User{}, err
	}
	return user, nil
}

// RefreshTTL exposes the refresh lifetime for cookie max-age decisions.
func (s *AuthService) RefreshTTL() time.Duration {
	return s.cfg.Security.RefreshTTL
}
