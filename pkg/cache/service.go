package cache

import "time"

// CacheService is the in-process cache used for query results, category
// lists and live browse sessions.
type CacheService interface {
	// Get returns the value and whether it was found and unexpired.
	Get(key string) (interface{}, bool)

	// Set stores a value. A zero duration uses the cache default.
	Set(key string, value interface{}, duration time.Duration)

	// Replace stores a value only if the key is present and unexpired.
	Replace(key string, value interface{}, duration time.Duration) bool

	Delete(key string)

	// Items returns every unexpired value by key.
	Items() map[string]interface{}

	// OnEvicted registers a hook run when a key expires or is deleted.
	// Flush does not run it.
	OnEvicted(fn func(key string, value interface{}))

	Flush()
}
