package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/cache"
	"kidotrendz/storefront/internal/config"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
	"kidotrendz/storefront/internal/security"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by id
	seq   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = "u" + strconv.Itoa(f.seq)
	user.CreatedAt = time.Now().UTC()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id string, fields map[string]any) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	for path, val := range fields {
		str := val.(string)
		switch path {
		case "name":
			user.Name = str
		case "phone":
			user.Phone = str
		case "address":
			user.Address = str
		case "profile_photo":
			user.ProfilePhoto = str
		}
	}
	f.users[id] = user
	return user, nil
}

func (f *fakeUserStore) ReplaceCart(_ context.Context, id string, items []models.CartRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.CartItems = items
	f.users[id] = user
	return nil
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	hashes map[string][]byte
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{hashes: make(map[string][]byte)}
}

func (f *fakeRefreshTokens) Save(_ context.Context, userID string, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[userID] = hash
	return nil
}

func (f *fakeRefreshTokens) Get(_ context.Context, userID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.hashes[userID]
	if !ok {
		return nil, cache.ErrTokenNotFound
	}
	return hash, nil
}

func (f *fakeRefreshTokens) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hashes, userID)
	return nil
}

func testAuthConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret: "test-secret",
			JWTAccessTTL:    time.Minute,
			RefreshTTL:      time.Hour,
		},
	}
}

func newTestAuthService() (*AuthService, *fakeUserStore, *fakeRefreshTokens) {
	users := newFakeUserStore()
	tokens := newFakeRefreshTokens()
	svc := NewAuthService(users, tokens, testAuthConfig(), zerolog.Nop())
	return svc, users, tokens
}

func TestAuthService_Signup(t *testing.T) {
	svc, _, tokens := newTestAuthService()

	result, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Maya",
		Email:    "Maya@Example.com",
		Password: "opensesame",
	})
	require.NoError(t, err)

	assert.Equal(t, "maya@example.com", result.User.Email)
	assert.Equal(t, models.UserRoleCustomer, result.User.Role)
	assert.NotEmpty(t, result.User.ID)
	assert.NotContains(t, result.User.PasswordHash, "opensesame")

	claims, err := security.ParseAccessToken(result.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	// Refresh token is self-describing: "<userID>.<secret>".
	userID, _, found := strings.Cut(result.RefreshToken, ".")
	require.True(t, found)
	assert.Equal(t, result.User.ID, userID)
	_, err = tokens.Get(context.Background(), userID)
	assert.NoError(t, err)
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "", Password: "x"})
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))

	_, err = svc.Signup(ctx, SignupInput{Name: "Maya", Email: "not-an-email", Password: "x"})
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	input := SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"}
	_, err := svc.Signup(ctx, input)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, input)
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "MAYA@example.com", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, "maya@example.com", result.User.Email)
	assert.NotEmpty(t, result.AccessToken)

	_, err = svc.Login(ctx, "maya@example.com", "wrong")
	assert.Equal(t, apierr.KindUnauthenticated, apierr.KindOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "opensesame")
	assert.Equal(t, apierr.KindUnauthenticated, apierr.KindOf(err))
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	signup, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"})
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, signup.RefreshToken)
	require.NoError(t, err)

	claims, err := security.ParseAccessToken(access, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, claims.UserID)
}

func TestAuthService_RefreshRejections(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	ctx := context.Background()

	signup, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		setup func()
	}{
		{"malformed", "no-separator", nil},
		{"empty secret", signup.User.ID + ".", nil},
		{"wrong secret", signup.User.ID + ".forged", nil},
		{"revoked", signup.RefreshToken, func() {
			require.NoError(t, tokens.Delete(ctx, signup.User.ID))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := svc.Refresh(ctx, tt.token)
			require.Error(t, err)
			assert.Equal(t, apierr.KindUnauthorized, apierr.KindOf(err))
		})
	}
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	signup, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, signup.User.ID))

	_, err = svc.Refresh(ctx, signup.RefreshToken)
	assert.Equal(t, apierr.KindUnauthorized, apierr.KindOf(err))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	signup, err := svc.Signup(ctx, SignupInput{Name: "Maya", Email: "maya@example.com", Password: "opensesame"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, signup.User.ID, map[string]any{
		"name":  "Maya K",
		"phone": "555-0101",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maya K", updated.Name)
	assert.Equal(t, "555-0101", updated.Phone)

	stored, err := users.GetByID(ctx, signup.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maya K", stored.Name)

	// Email is immutable through the profile path.
	_, err = svc.UpdateProfile(ctx, signup.User.ID, map[string]any{"email": "new@example.com"})
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))

	_, err = svc.UpdateProfile(ctx, signup.User.ID, map[string]any{})
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))

	_, err = svc.UpdateProfile(ctx, "missing", map[string]any{"name": "x"})
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}
