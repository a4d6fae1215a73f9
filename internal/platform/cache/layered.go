package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultInvalidationChannel carries invalidation events between processes.
const DefaultInvalidationChannel = "acl.invalidate"

const (
	msgKey    = "key:"
	msgPrefix = "prefix:"
)

// LayeredStore keeps a process-local tier in front of a shared Redis tier and
// publishes invalidations so peers drop their local copies.
type LayeredStore struct {
	local   *MemoryStore
	remote  *RedisStore
	client  *redis.Client
	channel string
}

// NewLayeredStore composes local and remote tiers.
func NewLayeredStore(local *MemoryStore, remote *RedisStore, client *redis.Client, channel string) *LayeredStore {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	return &LayeredStore{local: local, remote: remote, client: client, channel: channel}
}

// Get implements Store, filling the local tier on a remote hit.
func (s *LayeredStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := s.local.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := s.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = s.local.Set(ctx, key, value)
	return value, nil
}

// Set implements Store.
func (s *LayeredStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.remote.Set(ctx, key, value); err != nil {
		return err
	}
	return s.local.Set(ctx, key, value)
}

// Delete implements Store.
func (s *LayeredStore) Delete(ctx context.Context, key string) error {
	_ = s.local.Delete(ctx, key)
	if err := s.remote.Delete(ctx, key); err != nil {
		return err
	}
	return s.publish(ctx, msgKey+key)
}

// DeletePrefix implements Store.
func (s *LayeredStore) DeletePrefix(ctx context.Context, prefix string) error {
	_ = s.local.DeletePrefix(ctx, prefix)
	if err := s.remote.DeletePrefix(ctx, prefix); err != nil {
		return err
	}
	return s.publish(ctx, msgPrefix+prefix)
}

// Listen subscribes to invalidation events until ctx is cancelled.
func (s *LayeredStore) Listen(ctx context.Context) error {
	if s.client == nil {
		return errors.New("platform/cache: redis client required")
	}
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	defer func() { _ = pubsub.Close() }()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.apply(ctx, msg.Payload)
		}
	}
}

func (s *LayeredStore) apply(ctx context.Context, payload string) {
	switch {
	case strings.HasPrefix(payload, msgPrefix):
		_ = s.local.DeletePrefix(ctx, strings.TrimPrefix(payload, msgPrefix))
	case strings.HasPrefix(payload, msgKey):
		_ = s.local.Delete(ctx, strings.TrimPrefix(payload, msgKey))
	}
}

func (s *LayeredStore) publish(ctx context.Context, payload string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
