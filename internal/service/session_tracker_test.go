package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

func newSessionFixture(t *testing.T, limit int) (*memory.Store, *service.SessionTracker, model.User, model.Event) {
	t.Helper()
	store := memory.New()
	dj := store.AddUser("dj-ada", model.RoleDJ)
	fan := store.AddUser("fan-bo", model.RoleAudience)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	tracker := service.NewSessionTracker(store, 15*time.Minute, limit, 24*time.Hour)
	return store, tracker, fan, ev
}

func TestJoinOrRefreshCreatesThenRefreshes(t *testing.T) {
	_, tracker, fan, ev := newSessionFixture(t, 0)
	ctx := context.Background()

	first, isNew, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, isNew)

	again, isNew, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "10.0.0.2")
	require.NoError(t, err)
	require.False(t, isNew, "rejoining must refresh, not create")
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "10.0.0.2", again.ClientIP)
	require.False(t, again.LastSeen.Before(first.LastSeen))
}

func TestJoinOrRefreshDistinctPerEvent(t *testing.T) {
	store, tracker, fan, ev := newSessionFixture(t, 0)
	ev2 := store.AddEvent(ev.DJUserID, "Rooftop Set", "rooftop-set")
	ctx := context.Background()

	s1, isNew, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
	require.NoError(t, err)
	require.True(t, isNew)
	s2, isNew, err := tracker.JoinOrRefresh(ctx, fan.ID, ev2.ID, "")
	require.NoError(t, err)
	require.True(t, isNew, "each event gets its own session")
	require.NotEqual(t, s1.ID, s2.ID)
}

func TestRequestLimitEnforced(t *testing.T) {
	_, tracker, fan, ev := newSessionFixture(t, 3)
	ctx := context.Background()

	sess, _, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		count, err := tracker.IncrementRequestCount(ctx, sess.ID)
		require.NoError(t, err)
		require.Equal(t, i, count)
	}
	_, err = tracker.IncrementRequestCount(ctx, sess.ID)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestRequestLimitZeroDisablesCap(t *testing.T) {
	_, tracker, fan, ev := newSessionFixture(t, 0)
	ctx := context.Background()

	sess, _, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_, err := tracker.IncrementRequestCount(ctx, sess.ID)
		require.NoError(t, err)
	}
}

func TestActiveUsersRespectsWindow(t *testing.T) {
	store, tracker, fan, ev := newSessionFixture(t, 0)
	ctx := context.Background()

	fresh, _, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
	require.NoError(t, err)

	idler := store.AddUser("fan-cy", model.RoleAudience)
	stale, _, err := tracker.JoinOrRefresh(ctx, idler.ID, ev.ID, "")
	require.NoError(t, err)
	store.SetLastSeen(stale.ID, time.Now().UTC().Add(-time.Hour))

	n, err := tracker.ActiveUsers(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Touch pulls the idle session back inside the window.
	require.NoError(t, tracker.Touch(ctx, stale.ID))
	n, err = tracker.ActiveUsers(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_ = fresh
}

func TestConcurrentJoinSamePairSingleCreation(t *testing.T) {
	_, tracker, fan, ev := newSessionFixture(t, 0)
	ctx := context.Background()

	const attempts = 16
	var mu sync.Mutex
	created := 0
	ids := make(map[uint64]struct{})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			sess, isNew, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
			require.NoError(t, err)
			mu.Lock()
			if isNew {
				created++
			}
			ids[sess.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, created, "exactly one join creates the session")
	require.Len(t, ids, 1)
}

func TestReaperRemovesStaleSessions(t *testing.T) {
	store, tracker, fan, ev := newSessionFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, _, err := tracker.JoinOrRefresh(ctx, fan.ID, ev.ID, "")
	require.NoError(t, err)
	store.SetLastSeen(sess.ID, time.Now().UTC().Add(-48*time.Hour))

	tracker.StartReaper(ctx, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		n, err := store.CountActive(context.Background(), ev.ID, time.Time{})
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)
}
