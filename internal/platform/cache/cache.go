package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache layers get-or-compute semantics and invalidation on top of a Store.
type Cache struct {
	store    Store
	observer Observer
	group    singleflight.Group

	// epoch advances on every invalidation; fills computed under an older
	// epoch are returned to their caller but never written back.
	mu    sync.RWMutex
	epoch atomic.Uint64
}

// NewCache wraps store. A nil observer disables hit/miss reporting.
func NewCache(store Store, observer Observer) *Cache {
	return &Cache{store: store, observer: observer}
}

// Store exposes the underlying store.
func (c *Cache) Store() Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Fetch returns the cached value for key or computes, stores and returns it.
// Concurrent misses for the same key share a single compute call.
func Fetch[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if compute == nil {
		return zero, errors.New("platform/cache: compute required")
	}
	if c == nil || c.store == nil {
		return compute(ctx)
	}

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		if jsonErr := json.Unmarshal(raw, &value); jsonErr == nil {
			c.hit(key)
			return value, nil
		}
	case !errors.Is(err, ErrMiss):
		return zero, fmt.Errorf("platform/cache: get %s: %w", key, err)
	}
	c.miss(key)

	// The flight is shared with callers whose contexts outlive this one, so it
	// keeps ctx values but not its cancellation.
	flightCtx := context.WithoutCancel(ctx)
	epoch := c.epoch.Load()
	ch := c.group.DoChan(fmt.Sprintf("%s#%d", key, epoch), func() (any, error) {
		value, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("platform/cache: encode %s: %w", key, err)
		}
		if err := c.setIfCurrent(flightCtx, key, payload, epoch); err != nil {
			return nil, err
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch.Add(1)
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("platform/cache: delete %s: %w", key, err)
	}
	return nil
}

// InvalidatePrefix removes every key starting with prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if c == nil || c.store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch.Add(1)
	if err := c.store.DeletePrefix(ctx, prefix); err != nil {
		return fmt.Errorf("platform/cache: delete prefix %s: %w", prefix, err)
	}
	return nil
}

func (c *Cache) setIfCurrent(ctx context.Context, key string, payload []byte, epoch uint64) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.epoch.Load() != epoch {
		return nil
	}
	if err := c.store.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("platform/cache: set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) hit(key string) {
	if c.observer != nil {
		c.observer.CacheHit(key)
	}
}

func (c *Cache) miss(key string) {
	if c.observer != nil {
		c.observer.CacheMiss(key)
	}
}
