package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("platform/cache: miss")

// Store is a byte-oriented key value store safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Observer receives hit/miss notifications from Fetch.
type Observer interface {
	CacheHit(key string)
	CacheMiss(key string)
}
