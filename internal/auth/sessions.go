package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when a password-reset token does not exist
// or has already been consumed.
var ErrTokenNotFound = errors.New("token not found")

// SessionStore tracks revoked session tokens and pending password-reset
// tokens. Both are short-lived, so they live in Redis rather than the
// primary database.
type SessionStore interface {
	// Revoke denylists a session token until its natural expiry.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	// IsRevoked reports whether a session token has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
	// SetResetToken stores a one-time password-reset token for a profile.
	SetResetToken(ctx context.Context, token string, profileID int64, ttl time.Duration) error
	// ConsumeResetToken atomically fetches and deletes a reset token,
	// returning the profile it belongs to. ErrTokenNotFound if absent.
	ConsumeResetToken(ctx context.Context, token string) (int64, error)
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a SessionStore backed by the given Redis client.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	return s.client.Set(ctx, "denylist:"+token, "1", ttl).Err()
}

func (s *redisSessionStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := s.client.Get(ctx, "denylist:"+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisSessionStore) SetResetToken(ctx context.Context, token string, profileID int64, ttl time.Duration) error {
	return s.client.Set(ctx, "reset:"+token, profileID, ttl).Err()
}

func (s *redisSessionStore) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	id, err := s.client.GetDel(ctx, "reset:"+token).Int64()
	if err == redis.Nil {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
