package revocation

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and single-node demos.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewMemoryStore returns an empty process-local store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]struct{})}
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	s.revoked[Digest(token)] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	_, ok := s.revoked[Digest(token)]
	s.mu.RUnlock()
	return ok, nil
}
