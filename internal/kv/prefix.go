package kv

import (
	"context"
	"strings"
)

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix scopes every key of inner under prefix. Listed keys come back
// without the prefix. The prefix must not contain glob metacharacters.
func WithPrefix(inner Store, prefix string) Store {
	if prefix == "" {
		return inner
	}
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) List(ctx context.Context, pattern string, withValues bool) ([]Entry, error) {
	entries, err := p.inner.List(ctx, p.prefix+pattern, withValues)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Key = strings.TrimPrefix(entries[i].Key, p.prefix)
	}
	return entries, nil
}

func (p *prefixed) Ping(ctx context.Context) error {
	if pinger, ok := p.inner.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
