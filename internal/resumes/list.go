package resumes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"resumind/internal/shared/telemetry"
)

// List returns every record of the owner. Records without a feedback object
// are marked incomplete; values that cannot be decoded are skipped.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	entries, err := s.KV.List(ctx, recordPattern, true)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", recordPattern, err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		r, err := decodeRecord(e.Value)
		if err != nil {
			telemetry.Warn("resume.list.skipped", map[string]any{
				"owner": s.Owner,
				"key":   e.Key,
				"error": err,
			})
			continue
		}
		if r.ID == "" {
			r.ID = strings.TrimPrefix(e.Key, keyPrefix)
		}
		items = append(items, newItem(e.Key, r))
	}
	return items, nil
}

// Item builds the listing entry for a stored record.
func (s *Service) Item(ctx context.Context, id string) (Item, error) {
	r, err := s.Record(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return newItem(RecordKey(id), r), nil
}

func newItem(key string, r Record) Item {
	item := Item{Key: key, Record: r, Status: StatusIncomplete}
	if res, ok := r.Result(); ok {
		item.Status = StatusComplete
		item.Feedback = res
	}
	return item
}

// Listing is an in-memory snapshot of a listing that callers mutate as they
// delete items.
type Listing struct {
	mu    sync.Mutex
	items []Item
}

// NewListing wraps items.
func NewListing(items []Item) *Listing {
	return &Listing{items: append([]Item(nil), items...)}
}

// Items returns a copy of the current items.
func (l *Listing) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Item(nil), l.items...)
}

// Delete removes item through svc and drops it from the listing only once the
// record itself is gone.
func (l *Listing) Delete(ctx context.Context, svc *Service, item Item) error {
	if err := svc.Remove(ctx, item); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0]
	for _, it := range l.items {
		if it.Record.ID != item.Record.ID {
			kept = append(kept, it)
		}
	}
	l.items = kept
	return nil
}
