package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryList is an in-process revocation list for tests and single-node
// deployments. Expired jtis are pruned lazily on lookup.
type MemoryList struct {
	mu      sync.RWMutex
	jtis    map[string]time.Time
	cutoffs map[string]time.Time
	clock   func() time.Time
}

// MemoryListOption configures a MemoryList instance.
type MemoryListOption func(*MemoryList)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryListOption {
	return func(l *MemoryList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewMemoryList constructs an empty in-memory revocation list.
func NewMemoryList(opts ...MemoryListOption) *MemoryList {
	l := &MemoryList{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *MemoryList) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jtis[jti] = l.clock().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.jtis[jti]
	if !ok {
		return false, nil
	}
	if l.clock().After(expiresAt) {
		delete(l.jtis, jti)
		return false, nil
	}
	return true, nil
}

func (l *MemoryList) RevokeSubject(_ context.Context, subject string, cutoff time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Never move the cutoff backwards.
	if existing, ok := l.cutoffs[subject]; ok && existing.After(cutoff) {
		return nil
	}
	l.cutoffs[subject] = cutoff
	return nil
}

func (l *MemoryList) SubjectCutoff(_ context.Context, subject string) (time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cutoffs[subject], nil
}
