package resumes

import (
	"context"
	"fmt"
	"sync"

	"resumind/internal/shared/metrics"
	"resumind/internal/shared/telemetry"
)

// inflight is a set of record keys with a delete in progress.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

var deletes = &inflight{keys: make(map[string]struct{})}

// Remove deletes a record and then its blobs. A second Remove for the same
// record while one is running returns ErrDeleteInProgress without touching the
// store. Blob delete failures are logged and counted but never returned.
func (s *Service) Remove(ctx context.Context, item Item) error {
	id := item.Record.ID
	key := item.Key
	if key == "" {
		key = RecordKey(id)
	}
	guard := s.Owner + "\x00" + key
	if !deletes.acquire(guard) {
		return ErrDeleteInProgress
	}
	defer deletes.release(guard)

	if err := s.KV.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	metrics.IncRecordDeleted()

	for _, path := range []string{item.Record.ResumePath, item.Record.ImagePath} {
		if path == "" {
			continue
		}
		if err := s.Store.Delete(ctx, path); err != nil {
			metrics.IncBlobDeleteFailed()
			telemetry.Warn("resume.blob.delete_failed", map[string]any{
				"owner":     s.Owner,
				"resume_id": id,
				"path":      path,
				"error":     err,
			})
		}
	}

	telemetry.Info("resume.deleted", map[string]any{
		"owner":     s.Owner,
		"resume_id": id,
	})
	return nil
}
