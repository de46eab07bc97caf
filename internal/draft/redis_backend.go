package draft

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores draft keys as plain Redis strings.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend returns a Backend bound to rdb.
func NewRedisBackend(rdb *redis.Client) *RedisBackend { return &RedisBackend{rdb: rdb} }

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return bs, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.rdb.Del(ctx, keys...).Err()
}

// GetDel uses GETDEL, so it needs Redis 6.2 or newer.
func (b *RedisBackend) GetDel(ctx context.Context, key string) ([]byte, error) {
	bs, err := b.rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return bs, err
}

// Keys walks the keyspace with SCAN so large databases are not blocked
// the way KEYS would block them.
func (b *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := b.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
