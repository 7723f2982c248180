package health

import (
	"context"
	"time"

	"resumind/internal/kv"
)

const pingTimeout = 2 * time.Second

// Readiness reports whether startup has finished verifying the backends.
type Readiness interface {
	Ready() bool
}

// Status is the health payload returned by the API.
type Status struct {
	OK    bool   `json:"ok"`
	Ready bool   `json:"ready"`
	KV    string `json:"kv"`
	Error string `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	ready Readiness
	kv    kv.Store
}

// NewService constructs a new health service. Either dependency may be nil.
func NewService(ready Readiness, store kv.Store) *Service {
	return &Service{ready: ready, kv: store}
}

// Status reports readiness and pings the key-value backend when it supports it.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{Ready: s.ready == nil || s.ready.Ready(), KV: "unknown"}

	if pinger, ok := s.kv.(kv.Pinger); ok {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := pinger.Ping(pctx); err != nil {
			st.KV = "down"
			st.Error = err.Error()
		} else {
			st.KV = "up"
		}
	}

	st.OK = st.Ready && st.KV != "down"
	return st
}
