// Package kv is the storefront's key-value persistence boundary. Carts,
// sessions and the blob-backed collections are written as whole JSON
// documents under string keys.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetMulti writes every pair or none of them.
	SetMulti(ctx context.Context, values map[string][]byte) error
	Del(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
)

// IdempotencyKey returns the key holding a replayable response.
func IdempotencyKey(scope, id string) string {
	return Join(idempotencyPrefix, scope, id)
}

// RateLimitKey returns the counter key for a rate limit scope.
func RateLimitKey(parts ...string) string {
	return Join(append([]string{rateLimitPrefix}, parts...)...)
}

// Join builds a colon separated key, skipping empty parts.
func Join(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
