package tokens

import (
	"context"
	"sync"
)

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu         sync.Mutex
	owner      string
	antiCSRF   string
	frontToken string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AntiCSRF implements [Store].
func (s *MemoryStore) AntiCSRF(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" || s.owner != sessionID {
		s.owner, s.antiCSRF = "", ""
		return "", nil
	}
	return s.antiCSRF, nil
}

// SetAntiCSRF implements [Store].
func (s *MemoryStore) SetAntiCSRF(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" || token == "" {
		s.owner, s.antiCSRF = "", ""
		return nil
	}
	s.owner, s.antiCSRF = sessionID, token
	return nil
}

// RemoveAntiCSRF implements [Store].
func (s *MemoryStore) RemoveAntiCSRF(context.Context) error {
	s.mu.Lock()
	s.owner, s.antiCSRF = "", ""
	s.mu.Unlock()
	return nil
}

// FrontToken implements [Store].
func (s *MemoryStore) FrontToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frontToken, nil
}

// SetFrontToken implements [Store].
func (s *MemoryStore) SetFrontToken(_ context.Context, token string) error {
	s.mu.Lock()
	s.frontToken = token
	s.mu.Unlock()
	return nil
}

// RemoveFrontToken implements [Store].
func (s *MemoryStore) RemoveFrontToken(context.Context) error {
	s.mu.Lock()
	s.frontToken = ""
	s.mu.Unlock()
	return nil
}
