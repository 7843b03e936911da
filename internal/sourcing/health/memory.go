package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

type entry struct {
	status types.Status
	until  time.Time
	streak int
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu       sync.Mutex
	policy   Policy
	now      func() time.Time
	entries  map[types.SourceID]*entry
	limiters map[types.SourceID]*rate.Limiter
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-process health record
func NewMemoryStore(policy Policy, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		policy:   policy,
		now:      time.Now,
		entries:  make(map[types.SourceID]*entry),
		limiters: make(map[types.SourceID]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements Store
func (s *MemoryStore) Check(_ context.Context, id types.SourceID) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[id]; ok && now.Before(e.until) {
		return Verdict{Status: e.status, Until: e.until}, nil
	}

	if lim := s.limiter(id); lim != nil && !lim.AllowN(now, 1) {
		every := s.policy.Window() / time.Duration(s.policy.Budget(id))
		return Verdict{Status: types.StatusExhausted, Until: now.Add(every)}, nil
	}
	return Allow, nil
}

// Record implements Store
func (s *MemoryStore) Record(_ context.Context, id types.SourceID, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}

	if IsFailure(r.Status) {
		e.streak++
	} else {
		e.streak = 0
	}

	if d, status := s.policy.Cooldown(r, e.streak); d > 0 {
		e.status = status
		e.until = s.now().Add(d)
		if IsFailure(r.Status) {
			e.streak = 0
		}
	}
	return nil
}

// Snapshot returns the sources currently cooling down
func (s *MemoryStore) Snapshot() map[types.SourceID]Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make(map[types.SourceID]Verdict)
	for id, e := range s.entries {
		if now.Before(e.until) {
			out[id] = Verdict{Status: e.status, Until: e.until}
		}
	}
	return out
}

// limiter returns the budget limiter of id, nil when unlimited.
// Callers hold s.mu.
func (s *MemoryStore) limiter(id types.SourceID) *rate.Limiter {
	budget := s.policy.Budget(id)
	if budget <= 0 {
		return nil
	}
	if lim, ok := s.limiters[id]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Every(s.policy.Window()/time.Duration(budget)), budget)
	s.limiters[id] = lim
	return lim
}

var _ Store = (*MemoryStore)(nil)
