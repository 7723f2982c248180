// Package resumes runs the resume-analysis pipeline and manages the records it
// produces.
package resumes

import (
	"context"
	"time"

	"resumind/internal/kv"
	"resumind/internal/llm"
	"resumind/internal/raster"
	"resumind/internal/shared/storage/object"
	"resumind/internal/shared/util"
)

const (
	DefaultInferenceRetryDelay = 2 * time.Second
	DefaultAttemptRetryDelay   = 2500 * time.Millisecond
)

// Readiness reports whether the backends have finished initialising.
type Readiness interface {
	Ready() bool
}

// Service contains the pipeline and record lifecycle logic. Owner scopes blob
// keys; KV is expected to be scoped to the same owner (see ForOwner).
type Service struct {
	Owner  string
	Store  object.ObjectStore
	KV     kv.Store
	LLM    llm.Client
	Raster raster.Rasterizer
	Ready  Readiness

	InferenceRetryDelay time.Duration
	AttemptRetryDelay   time.Duration

	// NewID and Sleep default to NewID and a context-aware timer.
	NewID func() string
	Sleep func(ctx context.Context, d time.Duration) error
}

// ForOwner returns a copy of the service whose records and blobs live in the
// owner's namespace.
func (s *Service) ForOwner(owner string) *Service {
	cp := *s
	cp.Owner = owner
	if s.KV != nil {
		cp.KV = kv.WithPrefix(s.KV, util.OwnerNamespace(owner))
	}
	return &cp
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return NewID()
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (s *Service) inferenceRetryDelay() time.Duration {
	if s.InferenceRetryDelay > 0 {
		return s.InferenceRetryDelay
	}
	return DefaultInferenceRetryDelay
}

func (s *Service) attemptRetryDelay() time.Duration {
	if s.AttemptRetryDelay > 0 {
		return s.AttemptRetryDelay
	}
	return DefaultAttemptRetryDelay
}

func (s *Service) ready() bool {
	return s.Ready == nil || s.Ready.Ready()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
