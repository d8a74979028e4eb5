package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

const pageKeyPrefix = "page:"

// PageKey maps a URL to a memcache-safe key. Memcache keys are limited to
// 250 bytes without whitespace, so the URL is hashed.
func PageKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return pageKeyPrefix + hex.EncodeToString(sum[:])
}
