package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

func TestSummaryUnknownEvent(t *testing.T) {
	store := memory.New()
	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)

	_, err := dash.Summary(context.Background(), 42)
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestSummaryEmptyEventIsZeroedNotMissing(t *testing.T) {
	store := memory.New()
	dj := store.AddUser("dj-ada", model.RoleDJ)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)

	sum, err := dash.Summary(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Equal(t, ev.ID, sum.EventID)
	require.Zero(t, sum.TotalRequests)
	require.Zero(t, sum.TotalVotes)
	require.Zero(t, sum.ActiveUsers)
	require.Empty(t, sum.TopRequests)
}

func TestSummaryScenario(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

	dj := store.AddUser("dj-ada", model.RoleDJ)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")

	fans := make([]model.User, 4)
	for i := range fans {
		fans[i] = store.AddUser("fan", model.RoleAudience)
	}

	// Three requests with 2, 3 and 0 votes; one approved, one rejected.
	r1 := store.AddRequest(ev.ID, fans[0].ID, "One More Time", base)
	r2 := store.AddRequest(ev.ID, fans[1].ID, "Around the World", base.Add(time.Minute))
	r3 := store.AddRequest(ev.ID, fans[2].ID, "Digital Love", base.Add(2*time.Minute))

	guard := service.NewVoteGuard(store, store, store)
	for _, u := range fans[:2] {
		_, _, err := guard.CastVote(ctx, u.ID, r1.ID)
		require.NoError(t, err)
	}
	for _, u := range fans[:3] {
		_, _, err := guard.CastVote(ctx, u.ID, r2.ID)
		require.NoError(t, err)
	}
	store.SetRequestStatus(r1.ID, model.StatusApproved)
	store.SetRequestStatus(r3.ID, model.StatusRejected)

	// Two fans currently in the room, one long gone.
	tracker := service.NewSessionTracker(store, 15*time.Minute, 0, 24*time.Hour)
	for _, u := range fans[:2] {
		_, _, err := tracker.JoinOrRefresh(ctx, u.ID, ev.ID, "")
		require.NoError(t, err)
	}
	gone, _, err := tracker.JoinOrRefresh(ctx, fans[3].ID, ev.ID, "")
	require.NoError(t, err)
	store.SetLastSeen(gone.ID, time.Now().UTC().Add(-2*time.Hour))

	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)
	sum, err := dash.Summary(ctx, ev.ID)
	require.NoError(t, err)

	require.Equal(t, 3, sum.TotalRequests)
	require.Equal(t, 1, sum.PendingRequests)
	require.Equal(t, 1, sum.ApprovedRequests)
	require.Equal(t, 1, sum.RejectedRequests)
	require.Equal(t, 5, sum.TotalVotes)
	require.Equal(t, 2, sum.ActiveUsers)

	require.Len(t, sum.TopRequests, 3)
	require.Equal(t, r2.ID, sum.TopRequests[0].ID)
	require.Equal(t, 3, sum.TopRequests[0].VoteCount)
	require.Equal(t, r1.ID, sum.TopRequests[1].ID)
	require.Equal(t, r3.ID, sum.TopRequests[2].ID)

	require.Len(t, sum.RecentlyApproved, 1)
	require.Equal(t, r1.ID, sum.RecentlyApproved[0].ID)
	require.Len(t, sum.RecentlyRejected, 1)
	require.Equal(t, r3.ID, sum.RecentlyRejected[0].ID)
}

func TestTopRequestsTieBreakDeterministic(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

	dj := store.AddUser("dj-ada", model.RoleDJ)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	fan := store.AddUser("fan", model.RoleAudience)

	// Identical vote counts: earlier creation wins, then lower id.
	older := store.AddRequest(ev.ID, fan.ID, "Older", base)
	newer := store.AddRequest(ev.ID, fan.ID, "Newer", base.Add(time.Minute))
	twinA := store.AddRequest(ev.ID, fan.ID, "Twin A", base.Add(2*time.Minute))
	twinB := store.AddRequest(ev.ID, fan.ID, "Twin B", base.Add(2*time.Minute))

	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)
	for i := 0; i < 3; i++ {
		got, err := dash.TopRequests(ctx, ev.ID, "", 10)
		require.NoError(t, err)
		require.Equal(t, []uint64{older.ID, newer.ID, twinA.ID, twinB.ID},
			[]uint64{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
	}
}

func TestTopRequestsStatusFilterAndLimit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

	dj := store.AddUser("dj-ada", model.RoleDJ)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	fan := store.AddUser("fan", model.RoleAudience)

	pending := store.AddRequest(ev.ID, fan.ID, "Pending", base)
	approved := store.AddRequest(ev.ID, fan.ID, "Approved", base.Add(time.Minute))
	store.SetRequestStatus(approved.ID, model.StatusApproved)

	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)

	got, err := dash.TopRequests(ctx, ev.ID, model.StatusApproved, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, approved.ID, got[0].ID)

	got, err = dash.TopRequests(ctx, ev.ID, "", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, pending.ID, got[0].ID)

	_, err = dash.TopRequests(ctx, 999, "", 1)
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestDJEventStats(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

	dj := store.AddUser("dj-ada", model.RoleDJ)
	other := store.AddUser("dj-eve", model.RoleDJ)
	fan := store.AddUser("fan", model.RoleAudience)

	mine := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	store.AddEvent(other.ID, "Someone Else", "someone-else")

	r := store.AddRequest(mine.ID, fan.ID, "One More Time", base)
	guard := service.NewVoteGuard(store, store, store)
	_, _, err := guard.CastVote(ctx, fan.ID, r.ID)
	require.NoError(t, err)

	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)
	stats, err := dash.DJEventStats(ctx, dj.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, mine.ID, stats[0].EventID)
	require.Equal(t, 1, stats[0].TotalRequests)
	require.Equal(t, 1, stats[0].TotalVotes)
}
