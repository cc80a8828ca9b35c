package memo

import (
	"context"
	"sync"
)

// Session tracks the memo policy of the transaction being edited. Every
// Update starts a new generation; a check that finishes after a newer Update
// is discarded, whatever order the lookups complete in.
type Session struct {
	validator *Validator

	mu         sync.Mutex
	generation uint64
	current    Result
	cancel     context.CancelFunc
}

func NewSession(v *Validator) *Session {
	return &Session{validator: v}
}

// Update re-evaluates the policy for req. The returned channel yields the
// final result if it is still current when resolved and is closed either
// way.
func (s *Session) Update(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)

	env, dest, res, done := s.validator.precheck(req)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	gen := s.generation
	if done {
		s.current = res
		s.mu.Unlock()
		out <- res
		close(out)
		return out
	}
	s.current = pending
	checkCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer cancel()

		r := s.validator.lookup(checkCtx, env, dest)
		if !s.apply(gen, r) {
			s.validator.metrics.RecordSuperseded()
			return
		}
		out <- r
	}()
	return out
}

func (s *Session) apply(gen uint64, r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.current = r
	s.cancel = nil
	return true
}

// Current returns the latest applied result and its generation.
func (s *Session) Current() (Result, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.generation
}
