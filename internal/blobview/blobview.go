// Package blobview hands out revocable, session-scoped handles to blob bytes
// so a viewer never holds storage paths directly. Every handle belongs to one
// view session and is released when the view is torn down, re-triggered or
// left idle past the registry TTL.
package blobview

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"resumind/internal/shared/metrics"
)

var (
	ErrViewNotFound   = errors.New("view not found")
	ErrHandleNotFound = errors.New("handle not found")
	ErrSessionClosed  = errors.New("view session closed")
)

// Handle identifies acquired bytes within a session.
type Handle struct {
	ID          string
	ContentType string
	Size        int
}

type blob struct {
	data        []byte
	contentType string
}

// Registry tracks open view sessions.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

// NewRegistry returns a registry whose idle sessions expire after ttl.
// A non-positive ttl disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session for owner.
func (r *Registry) Open(owner string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		owner:    owner,
		registry: r,
		handles:  make(map[string]blob),
	}
	r.mu.Lock()
	s.lastUsed = r.now()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Session returns owner's open session with the given id.
func (r *Registry) Session(owner, viewID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[viewID]
	if !ok || s.owner != owner {
		return nil, ErrViewNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Get returns the bytes behind a handle.
func (r *Registry) Get(owner, viewID, handleID string) ([]byte, string, error) {
	s, err := r.Session(owner, viewID)
	if err != nil {
		return nil, "", err
	}
	return s.get(handleID)
}

// Close releases every handle of the session and forgets it.
func (r *Registry) Close(owner, viewID string) error {
	s, err := r.Session(owner, viewID)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// Reap closes sessions idle for longer than the TTL and returns how many it closed.
func (r *Registry) Reap() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var stale []*Session
	for _, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Session owns the handles created for one view.
type Session struct {
	ID string

	owner    string
	registry *Registry

	mu       sync.Mutex
	handles  map[string]blob
	lastUsed time.Time
	closed   bool
}

// Acquire registers bytes and returns a handle to them.
func (s *Session) Acquire(data []byte, contentType string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Handle{}, ErrSessionClosed
	}
	id := uuid.NewString()
	s.handles[id] = blob{data: data, contentType: contentType}
	return Handle{ID: id, ContentType: contentType, Size: len(data)}, nil
}

// Release drops the given handles and returns how many were live.
func (s *Session) Release(ids ...string) int {
	s.mu.Lock()
	released := 0
	for _, id := range ids {
		if _, ok := s.handles[id]; ok {
			delete(s.handles, id)
			released++
		}
	}
	s.mu.Unlock()
	metrics.AddViewHandlesReleased(released)
	return released
}

// ReleaseAll drops every handle the session holds.
func (s *Session) ReleaseAll() int {
	return s.Release(s.Handles()...)
}

// Handles lists live handle ids in a stable order.
func (s *Session) Handles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases all handles and removes the session from its registry.
// Closing twice is a no-op.
func (s *Session) Close() {
	s.ReleaseAll()
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if !already && s.registry != nil {
		s.registry.forget(s.ID)
	}
}

func (s *Session) get(id string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.handles[id]
	if !ok {
		return nil, "", ErrHandleNotFound
	}
	return b.data, b.contentType, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
