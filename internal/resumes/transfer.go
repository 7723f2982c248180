package resumes

import (
	"context"
	"errors"
	"fmt"

	"resumind/internal/kv"
	"resumind/internal/shared/telemetry"
)

// Transfer moves a record from s's namespace into dst's. The stored value is
// copied as is, so the blob keys it names keep resolving. The source key is
// guarded like a delete while the move runs.
func (s *Service) Transfer(ctx context.Context, dst *Service, item Item) error {
	key := item.Key
	if key == "" {
		key = RecordKey(item.Record.ID)
	}
	guard := s.Owner + "\x00" + key
	if !deletes.acquire(guard) {
		return ErrDeleteInProgress
	}
	defer deletes.release(guard)

	value, err := s.KV.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := dst.KV.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	// A failed delete leaves the record in both namespaces; repeating the
	// transfer converges.
	if err := s.KV.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	telemetry.Info("resume.transferred", map[string]any{
		"from":      s.Owner,
		"to":        dst.Owner,
		"resume_id": item.Record.ID,
	})
	return nil
}
