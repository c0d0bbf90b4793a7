package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/repository"
)

// The store must behave like the MySQL repositories for the two
// semantics the services lean on: the unique (user, request) vote key
// and the session upsert's created-vs-refreshed report.

func TestVoteInsertUniquePair(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := store.AddUser("ava", "audience")
	ev := store.AddEvent(store.AddUser("dj", "dj").ID, "Friday", "friday")
	req := store.AddRequest(ev.ID, u.ID, "Song A", time.Now().UTC())

	count, err := store.Insert(ctx, u.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = store.Insert(ctx, u.ID, req.ID)
	require.ErrorIs(t, err, repository.ErrDuplicateVote)

	count, err = store.CountByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestVoteDeleteThenReinsert(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := store.AddUser("ava", "audience")
	ev := store.AddEvent(store.AddUser("dj", "dj").ID, "Friday", "friday")
	req := store.AddRequest(ev.ID, u.ID, "Song A", time.Now().UTC())

	_, err := store.Insert(ctx, u.ID, req.ID)
	require.NoError(t, err)

	count, err := store.Delete(ctx, u.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	_, err = store.Delete(ctx, u.ID, req.ID)
	require.ErrorIs(t, err, repository.ErrVoteNotFound)

	// Removing the row frees the pair for a fresh vote.
	count, err = store.Insert(ctx, u.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSessionUpsertReportsCreation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := store.AddUser("ava", "audience")
	ev := store.AddEvent(store.AddUser("dj", "dj").ID, "Friday", "friday")

	first, isNew, err := store.Upsert(ctx, u.ID, ev.ID, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, isNew)

	again, isNew, err := store.Upsert(ctx, u.ID, ev.ID, "10.0.0.2")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "10.0.0.2", again.ClientIP)
	require.False(t, again.LastSeen.Before(first.LastSeen))
}

func TestSessionDeleteStaleKeepsRecent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	dj := store.AddUser("dj", "dj")
	ev := store.AddEvent(dj.ID, "Friday", "friday")
	a := store.AddUser("ava", "audience")
	b := store.AddUser("ben", "audience")

	stale, _, err := store.Upsert(ctx, a.ID, ev.ID, "")
	require.NoError(t, err)
	_, _, err = store.Upsert(ctx, b.ID, ev.ID, "")
	require.NoError(t, err)

	store.SetLastSeen(stale.ID, time.Now().UTC().Add(-48*time.Hour))

	removed, err := store.DeleteStale(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	// The reaped session cannot be touched; the live one still can.
	require.ErrorIs(t, store.Touch(ctx, stale.ID), repository.ErrSessionNotFound)

	n, err := store.CountActive(ctx, ev.ID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
