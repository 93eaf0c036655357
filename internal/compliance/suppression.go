package compliance

import (
	"context"
	"sync"
)

// SuppressionList answers whether a contact destination (email address or
// phone number) is on the organization-level opt-out or do-not-call list.
// This applies regardless of the individual lead's consent flags.
type SuppressionList interface {
	IsSuppressed(ctx context.Context, destination string) (bool, error)
	Add(ctx context.Context, destination string) error
	Remove(ctx context.Context, destination string) error
}

// InMemorySuppressionList backs tests and single-process deployments.
type InMemorySuppressionList struct {
	mu      sync.RWMutex
	entries map[string]bool
}

func NewInMemorySuppressionList() *InMemorySuppressionList {
	return &InMemorySuppressionList{entries: make(map[string]bool)}
}

func (s *InMemorySuppressionList) IsSuppressed(_ context.Context, destination string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[destination], nil
}

func (s *InMemorySuppressionList) Add(_ context.Context, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[destination] = true
	return nil
}

func (s *InMemorySuppressionList) Remove(_ context.Context, destination string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, destination)
	return nil
}
