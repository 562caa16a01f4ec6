package otp

import (
	"context"
	"fmt"
	"sync"

	"voxid/pkg/platform/sentinel"
)

// InMemoryStore keeps issued codes in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryStore constructs an empty in-memory OTP store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func key(email, code string) string {
	return email + ":" + code
}

func (s *InMemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(rec.Email, rec.Code)] = &rec
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, email, code string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[key(email, code)]; ok {
		return *rec, nil
	}
	return Record{}, fmt.Errorf("otp record not found: %w", sentinel.ErrNotFound)
}

// MarkUsed is a test-and-set under the store lock: the second of two racing
// calls observes the used flag and fails.
func (s *InMemoryStore) MarkUsed(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key(email, code)]
	if !ok {
		return fmt.Errorf("otp record not found: %w", sentinel.ErrNotFound)
	}
	if rec.Used {
		return fmt.Errorf("otp %s already consumed: %w", code, sentinel.ErrAlreadyUsed)
	}
	rec.Used = true
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(email, code)
	if _, ok := s.records[k]; !ok {
		return fmt.Errorf("otp record not found: %w", sentinel.ErrNotFound)
	}
	delete(s.records, k)
	return nil
}
