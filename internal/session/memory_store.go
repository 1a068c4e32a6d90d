package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID  uint
	expires time.Time
}

// MemoryStore is an in-memory implementation of Store for single-process
// deployments and tests.
type MemoryStore struct {
	sessions map[string]memoryEntry
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Save records a session id.
func (s *MemoryStore) Save(_ context.Context, id string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = memoryEntry{userID: userID, expires: s.now().Add(ttl)}
	s.sweepLocked()
	return nil
}

// Lookup returns the owner of a live session id.
func (s *MemoryStore) Lookup(_ context.Context, id string) (uint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok || !s.now().Before(entry.expires) {
		return 0, false, nil
	}
	return entry.userID, true, nil
}

// Delete forgets a session id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// sweepLocked drops expired entries. Callers hold the write lock.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.sessions {
		if !now.Before(entry.expires) {
			delete(s.sessions, id)
		}
	}
}
