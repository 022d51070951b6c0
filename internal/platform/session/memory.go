package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/platform/errs"
)

type memoryEntry struct {
	accountID uuid.UUID
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, accountID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = memoryEntry{accountID: accountID, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return uuid.Nil, errs.NotFound("session")
	}
	return entry.accountID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
