package credentials

import (
	"context"
	"sync"

	"quizclient/internal/models"
)

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	pair models.CredentialPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (models.CredentialPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, nil
}

func (s *MemoryStore) Save(ctx context.Context, pair models.CredentialPair) error {
	if !pair.Valid() {
		return &StoreError{Operation: "save", Cause: ErrIncompletePair}
	}
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.pair = models.CredentialPair{}
	s.mu.Unlock()
	return nil
}
