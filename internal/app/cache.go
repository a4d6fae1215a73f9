package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-commerce/storefront/internal/platform/cache"
)

// DecisionCache bundles the authorization cache with the layered store that
// needs a running invalidation listener, if any.
type DecisionCache struct {
	Cache   *cache.Cache
	Layered *cache.LayeredStore
	Backend string
	shared  bool
}

// NewDecisionCache builds the cache selected by ACL_CACHE_BACKEND.
func NewDecisionCache(cfg *Config, client *redis.Client, observer cache.Observer) (*DecisionCache, error) {
	backend := cfg.ACLCacheBackend
	if backend == "" {
		backend = CacheBackendMemory
	}
	if backend != CacheBackendMemory && client == nil {
		return nil, fmt.Errorf("acl cache backend %s requires redis", backend)
	}
	dc := &DecisionCache{Backend: backend}
	switch backend {
	case CacheBackendMemory:
		dc.Cache = cache.NewCache(cache.NewMemoryStore(cfg.ACLCacheSize, cfg.ACLCacheTTL), observer)
	case CacheBackendRedis:
		dc.Cache = cache.NewCache(cache.NewRedisStore(client, cfg.ACLCacheTTL), observer)
		dc.shared = true
	case CacheBackendLayered:
		dc.Layered = cache.NewLayeredStore(
			cache.NewMemoryStore(cfg.ACLCacheSize, cfg.ACLCacheTTL),
			cache.NewRedisStore(client, cfg.ACLCacheTTL),
			client,
			cache.DefaultInvalidationChannel,
		)
		dc.Cache = cache.NewCache(dc.Layered, observer)
		dc.shared = true
	default:
		return nil, fmt.Errorf("unsupported acl cache backend %q", backend)
	}
	return dc, nil
}

// Shared reports whether cached decisions are visible to other processes.
func (d *DecisionCache) Shared() bool {
	return d != nil && d.shared
}
