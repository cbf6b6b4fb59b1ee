package cookies

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the session identifier in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	value   string
	expires time.Time
	scope   string
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SessionID implements [Store].
func (s *MemoryStore) SessionID(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == "" {
		return "", nil
	}
	if !s.expires.IsZero() && !s.expires.After(s.now()) {
		return "", nil
	}
	return s.value, nil
}

// SetSessionID implements [Store].
func (s *MemoryStore) SetSessionID(_ context.Context, value string, expires time.Time, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" || (!expires.IsZero() && !expires.After(s.now())) {
		s.value = ""
		s.expires = time.Time{}
		s.scope = ""
		return nil
	}
	s.value = value
	s.expires = expires
	s.scope = scope
	return nil
}

// Scope returns the scope the current value was written under.
func (s *MemoryStore) Scope() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}
