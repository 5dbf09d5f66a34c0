package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-catalog/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

// PreferenceStore persists preferences as plain Redis strings without expiry.
// A nil store, or one whose client is gone, reports every call as unavailable.
type PreferenceStore struct {
	client *goredis.Client
}

// NewPreferenceStore connects to redisURL and selects db. Connection timeouts
// are short: preferences are best-effort and must not stall a session mount.
func NewPreferenceStore(ctx context.Context, redisURL string, db int) (*PreferenceStore, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = db
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = 500 * time.Millisecond
	opt.WriteTimeout = 500 * time.Millisecond

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Int("db", db).Msg("Redis preference store connected")
	return &PreferenceStore{client: client}, nil
}

// NewPreferenceStoreFromClient wraps an existing client.
func NewPreferenceStoreFromClient(client *goredis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

var errUnavailable = errors.New("redis client not available")

func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, errUnavailable
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get error: %w", err)
	}
	return val, true, nil
}

func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.client == nil {
		return errUnavailable
	}
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (s *PreferenceStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
