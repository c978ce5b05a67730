package kv

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/athengaudio/storefront/pkg/redis"
)

// Redis adapts the shared redis client to Store. Keys are namespaced by the
// client so several deployments can share one instance.
type Redis struct {
	client *pkgredis.Client
}

// NewRedis wraps client.
func NewRedis(client *pkgredis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, pkgredis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.client.Key(key), value, ttl)
}

func (r *Redis) SetMulti(ctx context.Context, values map[string][]byte) error {
	namespaced := make(map[string][]byte, len(values))
	for key, value := range values {
		namespaced[r.client.Key(key)] = value
	}
	return r.client.MSet(ctx, namespaced)
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.client.Key(key))
	}
	return r.client.Del(ctx, namespaced...)
}

func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.client.Key(key), value, ttl)
}

func (r *Redis) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return r.client.IncrWithTTL(ctx, r.client.Key(key), ttl)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
