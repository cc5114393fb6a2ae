package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PreferenceStore persists preferences per principal.
type PreferenceStore interface {
	Get(ctx context.Context, principalID string) (Preference, bool, error)
	Set(ctx context.Context, principalID string, pref Preference) error
}

// RedisStore keeps preferences in Redis without expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "portal:theme:"}
}

// Get returns the stored preference for principalID.
func (s *RedisStore) Get(ctx context.Context, principalID string) (Preference, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+principalID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("theme: get preference: %w", err)
	}
	pref, err := ParsePreference(raw)
	if err != nil {
		return "", false, err
	}
	return pref, true, nil
}

// Set stores pref for principalID.
func (s *RedisStore) Set(ctx context.Context, principalID string, pref Preference) error {
	if err := s.client.Set(ctx, s.prefix+principalID, string(pref), 0).Err(); err != nil {
		return fmt.Errorf("theme: set preference: %w", err)
	}
	return nil
}
