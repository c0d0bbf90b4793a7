package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

func newVoteFixture(t *testing.T) (*memory.Store, *service.VoteGuard, model.User, model.Request) {
	t.Helper()
	store := memory.New()
	dj := store.AddUser("dj-ada", model.RoleDJ)
	voter := store.AddUser("fan-bo", model.RoleAudience)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	req := store.AddRequest(ev.ID, voter.ID, "One More Time", time.Now().UTC())
	return store, service.NewVoteGuard(store, store, store), voter, req
}

func TestCastVoteThenDuplicate(t *testing.T) {
	store, guard, voter, req := newVoteFixture(t)
	ctx := context.Background()

	got, count, err := guard.CastVote(ctx, voter.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, req.ID, got.ID)
	require.Equal(t, 1, got.VoteCount)

	_, _, err = guard.CastVote(ctx, voter.ID, req.ID)
	require.ErrorIs(t, err, repository.ErrDuplicateVote)

	// The failed duplicate must not have moved the count.
	got, err = store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.VoteCount)
}

func TestCastVoteUnknownRequest(t *testing.T) {
	store, guard, voter, _ := newVoteFixture(t)
	_ = store
	_, _, err := guard.CastVote(context.Background(), voter.ID, 9999)
	require.ErrorIs(t, err, repository.ErrRequestNotFound)
}

func TestCastVoteUnknownUser(t *testing.T) {
	_, guard, _, req := newVoteFixture(t)
	_, _, err := guard.CastVote(context.Background(), 9999, req.ID)
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestRemoveVoteAndSecondRemoveFails(t *testing.T) {
	_, guard, voter, req := newVoteFixture(t)
	ctx := context.Background()

	_, _, err := guard.CastVote(ctx, voter.ID, req.ID)
	require.NoError(t, err)

	_, count, err := guard.RemoveVote(ctx, voter.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	_, _, err = guard.RemoveVote(ctx, voter.ID, req.ID)
	require.ErrorIs(t, err, repository.ErrVoteNotFound)
}

func TestRemoveVoteNeverCast(t *testing.T) {
	_, guard, voter, req := newVoteFixture(t)
	_, _, err := guard.RemoveVote(context.Background(), voter.ID, req.ID)
	require.ErrorIs(t, err, repository.ErrVoteNotFound)
}

func TestVoteStatus(t *testing.T) {
	_, guard, voter, req := newVoteFixture(t)
	ctx := context.Background()

	voted, count, err := guard.VoteStatus(ctx, voter.ID, req.ID)
	require.NoError(t, err)
	require.False(t, voted)
	require.Equal(t, 0, count)

	_, _, err = guard.CastVote(ctx, voter.ID, req.ID)
	require.NoError(t, err)

	voted, count, err = guard.VoteStatus(ctx, voter.ID, req.ID)
	require.NoError(t, err)
	require.True(t, voted)
	require.Equal(t, 1, count)

	_, _, err = guard.VoteStatus(ctx, voter.ID, 9999)
	require.ErrorIs(t, err, repository.ErrRequestNotFound)
}

func TestVotesFromDistinctUsersAccumulate(t *testing.T) {
	store, guard, _, req := newVoteFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		u := store.AddUser("fan", model.RoleAudience)
		_, count, err := guard.CastVote(ctx, u.ID, req.ID)
		require.NoError(t, err)
		require.Equal(t, i+1, count)
	}
}

func TestConcurrentCastSamePairSingleWinner(t *testing.T) {
	_, guard, voter, req := newVoteFixture(t)
	ctx := context.Background()

	const attempts = 32
	var wins, dups int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := guard.CastVote(ctx, voter.ID, req.ID)
			switch {
			case err == nil:
				atomic.AddInt64(&wins, 1)
			case err == repository.ErrDuplicateVote:
				atomic.AddInt64(&dups, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(1), wins)
	require.Equal(t, int64(attempts-1), dups)

	got, count, err := guard.RemoveVote(ctx, voter.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.Equal(t, req.ID, got.ID)
}
