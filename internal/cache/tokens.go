package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore keeps one refresh-token hash per user with the
// refresh TTL, so logout and expiry both revoke server-side.
type RefreshTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRefreshTokenStore(client *redis.Client, ttl time.Duration) *RefreshTokenStore {
	return &RefreshTokenStore{client: client, ttl: ttl}
}

func (s *RefreshTokenStore) key(userID string) string {
	return "refresh_token:" + userID
}

func (s *RefreshTokenStore) Save(ctx context.Context, userID string, hash []byte) error {
	if err := s.client.Set(ctx, s.key(userID), hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokenStore) Get(ctx context.Context, userID string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return val, nil
}

func (s *RefreshTokenStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
