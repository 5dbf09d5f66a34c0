package memory

import (
	"context"

	"storefront-catalog/pkg/cache"

	gocache "github.com/patrickmn/go-cache"
)

// PreferenceStore keeps preferences in the process cache. It is used when no
// Redis is configured, so preferences survive sessions but not restarts.
type PreferenceStore struct {
	cache cache.CacheService
}

func NewPreferenceStore(c cache.CacheService) *PreferenceStore {
	return &PreferenceStore{cache: c}
}

func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	str, ok := v.(string)
	return str, ok, nil
}

func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	s.cache.Set(key, value, gocache.NoExpiration)
	return nil
}
