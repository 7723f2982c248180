package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 100

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// List walks the keyspace with SCAN so large stores never block the server.
func (r *RedisStore) List(ctx context.Context, pattern string, withValues bool) ([]Entry, error) {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	if !withValues {
		for _, k := range keys {
			out = append(out, Entry{Key: k})
		}
		return out, nil
	}

	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		vals, err := r.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				// Deleted between SCAN and MGET.
				continue
			}
			out = append(out, Entry{Key: batch[i], Value: s})
		}
	}
	return out, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisStore)(nil)
