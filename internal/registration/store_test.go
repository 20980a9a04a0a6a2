package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/attendly/enrollment-server/database"
)

func seqID(v int64) *int64 {
	return &v
}

func TestPostgresStoreCreate(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	store := NewPostgresStore(pool)

	sessionDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates pending registration", func(t *testing.T) {
		reg, err := store.Create(context.Background(), &NewRegistration{
			Email:       "a@x.com",
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Phone:       "+33612345678",
			SequenceID:  seqID(42),
			SessionDate: sessionDate,
		})
		require.NoError(t, err)
		require.NotNil(t, reg)
		require.NotEqual(t, "", reg.ID.String())
		require.Equal(t, StatusPending, reg.Status)
		require.Equal(t, "a@x.com", reg.Email)
		require.NotNil(t, reg.SequenceID)
		require.Equal(t, int64(42), *reg.SequenceID)
		require.False(t, reg.CreatedAt.IsZero())
	})

	t.Run("rejects missing email", func(t *testing.T) {
		_, err := store.Create(context.Background(), &NewRegistration{
			SessionDate: sessionDate,
		})
		require.Error(t, err)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestPostgresStoreFindEligible(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	store := NewPostgresStore(pool)
	ctx := context.Background()

	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	// Session five days before the threshold: catch-up semantics must pick it up.
	past, err := store.Create(ctx, &NewRegistration{
		Email:       "past@x.com",
		SessionDate: asOf.AddDate(0, 0, -5),
	})
	require.NoError(t, err)

	// Session exactly on the threshold is eligible (<= comparison).
	boundary, err := store.Create(ctx, &NewRegistration{
		Email:       "boundary@x.com",
		SessionDate: asOf,
	})
	require.NoError(t, err)

	// Session after the threshold is not yet eligible.
	_, err = store.Create(ctx, &NewRegistration{
		Email:       "future@x.com",
		SessionDate: asOf.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	eligible, err := store.FindEligible(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, eligible, 2)

	emails := map[string]bool{}
	for _, reg := range eligible {
		emails[reg.Email] = true
	}
	require.True(t, emails["past@x.com"])
	require.True(t, emails["boundary@x.com"])
	require.False(t, emails["future@x.com"])

	// Processed records drop out of the eligible set.
	err = store.CommitStatuses(ctx, []StatusUpdate{
		{ID: past.ID, Status: StatusProcessed},
		{ID: boundary.ID, Status: StatusError, Detail: "403 Forbidden"},
	})
	require.NoError(t, err)

	eligible, err = store.FindEligible(ctx, asOf)
	require.NoError(t, err)
	require.Empty(t, eligible)
}

func TestPostgresStoreCommitStatuses(t *testing.T) {
	t.Parallel()

	pool, cleanupFunc := database.SetupTestDB(t)
	t.Cleanup(cleanupFunc)
	store := NewPostgresStore(pool)
	ctx := context.Background()

	sessionDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := store.Create(ctx, &NewRegistration{Email: "first@x.com", SessionDate: sessionDate})
	require.NoError(t, err)
	second, err := store.Create(ctx, &NewRegistration{Email: "second@x.com", SessionDate: sessionDate})
	require.NoError(t, err)

	t.Run("empty update set is a no-op", func(t *testing.T) {
		require.NoError(t, store.CommitStatuses(ctx, nil))
	})

	t.Run("applies all updates", func(t *testing.T) {
		err := store.CommitStatuses(ctx, []StatusUpdate{
			{ID: first.ID, Status: StatusProcessed},
			{ID: second.ID, Status: StatusError, Detail: "sequence does not exist"},
		})
		require.NoError(t, err)

		processed, err := store.CountByStatus(ctx, StatusProcessed)
		require.NoError(t, err)
		require.Equal(t, int64(1), processed)

		failed, err := store.CountByStatus(ctx, StatusError)
		require.NoError(t, err)
		require.Equal(t, int64(1), failed)

		pending, err := store.CountByStatus(ctx, StatusPending)
		require.NoError(t, err)
		require.Equal(t, int64(0), pending)
	})
}
