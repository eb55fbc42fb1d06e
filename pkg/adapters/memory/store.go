package memory

import (
	"context"
	"sync"

	"github.com/aretw0/titrate/pkg/policy"
)

// Store implements ports.PolicyPublisher in memory.
// Safe for concurrent use.
type Store struct {
	policy   *policy.Policy
	revision int64
	mu       sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with p.
// The seed is validated on the first Load.
func NewStore(p *policy.Policy) *Store {
	s := &Store{}
	if p != nil {
		cp := p.Clone()
		s.policy = &cp
	}
	return s
}

// Publish validates p and stores a copy of it.
func (s *Store) Publish(ctx context.Context, p *policy.Policy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepared, err := policy.Prepare(*p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = prepared
	s.revision++
	return nil
}

// Load returns a copy of the stored policy so callers cannot mutate it.
func (s *Store) Load(ctx context.Context) (*policy.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.policy == nil {
		return nil, policy.ErrPolicyNotFound
	}
	return policy.Prepare(s.policy.Clone())
}

// Revision counts successful publishes.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
