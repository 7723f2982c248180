// Package kv defines the string key-value contract that holds analysis records
// and its backends.
package kv

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Entry is one listed key with its value. Value is empty when the listing was
// requested without values.
type Entry struct {
	Key   string
	Value string
}

// Store is an opaque string-keyed store. Single-key operations are atomic;
// nothing else is guaranteed. Deleting a missing key succeeds.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns entries whose key matches a glob pattern ("resume:*"),
	// ordered by key.
	List(ctx context.Context, pattern string, withValues bool) ([]Entry, error)
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Match reports whether key matches the glob pattern. Keys never contain '/',
// so path.Match semantics coincide with the Redis MATCH syntax we rely on.
func Match(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
