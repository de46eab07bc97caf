// Package draft persists the in-progress submission field by field so
// that a half-filled form survives reloads, restarts and authentication
// redirects.
package draft

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when a key does not exist.
var ErrNotFound = errors.New("draft: key not found")

// Backend is the durable key/value storage used by Store and by the
// pending submission store.  Implementations must be safe for
// concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// GetDel returns the value of key and deletes it in one step.  Of two
	// concurrent callers at most one sees the value.
	GetDel(ctx context.Context, key string) ([]byte, error)
	// Keys lists every key that starts with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
