package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxid/internal/identity/models"
	"voxid/pkg/platform/sentinel"
	"voxid/pkg/testutil"
)

func TestSaveReplacesEarlierApplicant(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.PendingApplicant{Email: "a@x.com", Code: "111111"}))
	require.NoError(t, store.Save(ctx, models.PendingApplicant{Email: "a@x.com", Code: "222222"}))

	got, err := store.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
}

func TestFindMissingApplicant(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Find(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDeleteExpiredSweepsOnlyStale(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now()

	testutil.Given(t, "one stale and one fresh applicant", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, models.PendingApplicant{Email: "stale@x.com", ExpiresAt: now.Add(-time.Minute)}))
		require.NoError(t, store.Save(ctx, models.PendingApplicant{Email: "fresh@x.com", ExpiresAt: now.Add(time.Minute)}))
	})

	testutil.When(t, "the sweep runs", func(t *testing.T) {
		swept, err := store.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, swept)
	})

	testutil.Then(t, "only the stale applicant is gone", func(t *testing.T) {
		_, err := store.Find(ctx, "stale@x.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = store.Find(ctx, "fresh@x.com")
		assert.NoError(t, err)
	})
}
