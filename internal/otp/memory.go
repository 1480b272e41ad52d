package otp

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in a process-local map behind a mutex.
// Entries are lost on restart, which is acceptable for 5-minute codes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Put stores or overwrites the entry for a mobile number.
func (s *MemoryStore) Put(_ context.Context, mobile string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[mobile] = e
	return nil
}

// Get returns the live entry for a mobile number.
func (s *MemoryStore) Get(_ context.Context, mobile string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[mobile]
	return e, ok, nil
}

// Delete removes the entry for a mobile number.
func (s *MemoryStore) Delete(_ context.Context, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, mobile)
	return nil
}
