package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voxid/internal/identity/models"
	"voxid/pkg/platform/sentinel"
)

// InMemoryStore keeps pending applicants in memory. This is the production
// store as well as the test one: applicants are short-lived and losing them
// on restart only forces a re-registration.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]models.PendingApplicant
}

// NewInMemoryStore constructs an empty pending-applicant store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byEmail: make(map[string]models.PendingApplicant)}
}

func (s *InMemoryStore) Save(_ context.Context, p models.PendingApplicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[p.Email] = p
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, email string) (models.PendingApplicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byEmail[email]; ok {
		return p, nil
	}
	return models.PendingApplicant{}, fmt.Errorf("no pending registration for %s: %w", email, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, email)
	return nil
}

// DeleteExpired removes applicants whose window has closed and reports how
// many were swept.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for email, p := range s.byEmail {
		if p.Expired(now) {
			delete(s.byEmail, email)
			swept++
		}
	}
	return swept, nil
}
