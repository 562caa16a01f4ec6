package voice

import (
	"context"
	"sync"
	"time"
)

// ArchivedEmbedding is an append-only evidence record of a capture. The
// identity owns its print by value; the archive references the owner by
// email and is never read back by the matching path.
type ArchivedEmbedding struct {
	ID           string
	OwnerEmail   string
	Serial       string
	FeatureCount int
	CreatedAt    time.Time
}

// Archive persists capture evidence.
type Archive interface {
	Save(ctx context.Context, rec ArchivedEmbedding) error
	ListByOwner(ctx context.Context, email string) ([]ArchivedEmbedding, error)
}

// InMemoryArchive keeps capture evidence in memory for tests/dev.
type InMemoryArchive struct {
	mu      sync.RWMutex
	records []ArchivedEmbedding
}

// NewInMemoryArchive constructs an empty in-memory archive.
func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{}
}

func (a *InMemoryArchive) Save(_ context.Context, rec ArchivedEmbedding) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func (a *InMemoryArchive) ListByOwner(_ context.Context, email string) ([]ArchivedEmbedding, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []ArchivedEmbedding
	for _, rec := range a.records {
		if rec.OwnerEmail == email {
			out = append(out, rec)
		}
	}
	return out, nil
}
