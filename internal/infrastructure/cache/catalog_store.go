package cache

import (
	"context"
	"strconv"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/cache"
	"storefront-catalog/pkg/logger"
)

const queryKeyPrefix = "catalog:query:"

// CatalogStore memoizes descriptor results for a short TTL. Keys are the
// descriptor fingerprint plus the count flag, so a counted and an uncounted
// fetch of the same window never share an entry.
type CatalogStore struct {
	next  domain.CatalogStore
	cache cache.CacheService
	ttl   time.Duration
}

func NewCatalogStore(next domain.CatalogStore, c cache.CacheService, ttl time.Duration) *CatalogStore {
	return &CatalogStore{next: next, cache: c, ttl: ttl}
}

func (s *CatalogStore) Execute(ctx context.Context, q domain.QueryDescriptor, withCount bool) (domain.QueryResult, error) {
	key := QueryKey(q, withCount)
	if val, found := s.cache.Get(key); found {
		if res, ok := val.(domain.QueryResult); ok {
			logger.WithContext(ctx).Debug().Int("offset", q.Window.Offset).Msg("catalog query cache hit")
			return res, nil
		}
	}

	res, err := s.next.Execute(ctx, q, withCount)
	if err != nil {
		return domain.QueryResult{}, err
	}
	s.cache.Set(key, res, s.ttl)
	return res, nil
}

// QueryKey is the cache key of one descriptor execution.
func QueryKey(q domain.QueryDescriptor, withCount bool) string {
	return queryKeyPrefix + strconv.FormatBool(withCount) + ":" + string(q.Fingerprint())
}
