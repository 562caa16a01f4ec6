package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"voxid/internal/identity/models"
	"voxid/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in memory for tests/dev. Uniqueness is
// enforced under the store lock, so check-and-insert is atomic.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

// NewInMemoryStore constructs an empty in-memory user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *InMemoryStore) Create(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return fmt.Errorf("email %s taken: %w", u.Email, sentinel.ErrConflict)
	}
	rec := u
	s.byEmail[u.Email] = &rec
	s.byID[u.ID] = &rec
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byEmail[email]; ok {
		return *u, nil
	}
	return models.User{}, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		return *u, nil
	}
	return models.User{}, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Update(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[u.ID]
	if !ok {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	if other, taken := s.byEmail[u.Email]; taken && other.ID != u.ID {
		return fmt.Errorf("email %s taken: %w", u.Email, sentinel.ErrConflict)
	}
	if prev.Email != u.Email {
		delete(s.byEmail, prev.Email)
	}
	rec := u
	s.byEmail[u.Email] = &rec
	s.byID[u.ID] = &rec
	return nil
}
