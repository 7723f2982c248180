package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore implements Store on the kv_entries table created by the
// embedded goose migrations.
type PostgresStore struct {
	DB *sql.DB
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.DB.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.DB.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, pattern string, withValues bool) ([]Entry, error) {
	query := `SELECT key, '' FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	if withValues {
		query = `SELECT key, value FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key`
	}
	rows, err := p.DB.QueryContext(ctx, query, globToLike(pattern))
	if err != nil {
		return nil, fmt.Errorf("list kv %s: %w", pattern, err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan kv row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv rows: %w", err)
	}
	return out, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// globToLike translates the '*' and '?' wildcards into a LIKE pattern,
// escaping LIKE metacharacters that appear literally.
func globToLike(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			writeLikeLiteral(&b, r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			writeLikeLiteral(&b, r)
		}
	}
	return b.String()
}

func writeLikeLiteral(b *strings.Builder, r rune) {
	if r == '%' || r == '_' || r == '\\' {
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}

var _ Store = (*PostgresStore)(nil)
