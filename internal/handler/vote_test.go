package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/hub"
	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/service"
)

func newVoteTestEnv(t *testing.T) (*VoteHandler, *hub.Hub, *memory.Store, model.User, model.Request) {
	t.Helper()
	store := memory.New()
	dj := store.AddUser("dj-ada", model.RoleDJ)
	fan := store.AddUser("fan-bo", model.RoleAudience)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	req := store.AddRequest(ev.ID, fan.ID, "One More Time", time.Now().UTC())

	liveHub := hub.New()
	guard := service.NewVoteGuard(store, store, store)
	return NewVoteHandler(guard, liveHub), liveHub, store, fan, req
}

func voteContext(method string, userID uint64, requestID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/requests/:id/vote")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(requestID, 10))
	c.Set("user_id", userID)
	c.Set("username", "fan-bo")
	c.Set("role", model.RoleAudience)
	return c, rec
}

func TestCastVoteReturns201AndBroadcasts(t *testing.T) {
	h, liveHub, _, fan, songReq := newVoteTestEnv(t)
	sub := liveHub.Subscribe(songReq.EventID)
	defer liveHub.Unsubscribe(sub)

	c, rec := voteContext(http.MethodPost, fan.ID, songReq.ID)
	require.NoError(t, h.Cast(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["vote_count"])

	select {
	case n := <-sub.C:
		require.Equal(t, hub.TypeVoteAdded, n.Type)
		p, ok := n.Payload.(hub.VoteAddedPayload)
		require.True(t, ok)
		require.Equal(t, songReq.ID, p.RequestID)
		require.Equal(t, 1, p.VoteCount)
		require.Equal(t, fan.ID, p.UserID)
	case <-time.After(time.Second):
		t.Fatal("no vote_added notification")
	}
}

func TestCastVoteDuplicateReturns409(t *testing.T) {
	h, _, _, fan, songReq := newVoteTestEnv(t)

	c, rec := voteContext(http.MethodPost, fan.ID, songReq.ID)
	require.NoError(t, h.Cast(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = voteContext(http.MethodPost, fan.ID, songReq.ID)
	require.NoError(t, h.Cast(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "already voted", body["error"])
}

func TestCastVoteUnknownRequestReturns404(t *testing.T) {
	h, _, _, fan, _ := newVoteTestEnv(t)
	c, rec := voteContext(http.MethodPost, fan.ID, 9999)
	require.NoError(t, h.Cast(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveVoteReturnsCountAndBroadcasts(t *testing.T) {
	h, liveHub, _, fan, songReq := newVoteTestEnv(t)

	c, rec := voteContext(http.MethodPost, fan.ID, songReq.ID)
	require.NoError(t, h.Cast(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	sub := liveHub.Subscribe(songReq.EventID)
	defer liveHub.Unsubscribe(sub)

	c, rec = voteContext(http.MethodDelete, fan.ID, songReq.ID)
	require.NoError(t, h.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 0, body["vote_count"])

	select {
	case n := <-sub.C:
		require.Equal(t, hub.TypeVoteRemoved, n.Type)
	case <-time.After(time.Second):
		t.Fatal("no vote_removed notification")
	}
}

func TestRemoveVoteNeverCastReturns404(t *testing.T) {
	h, _, _, fan, songReq := newVoteTestEnv(t)
	c, rec := voteContext(http.MethodDelete, fan.ID, songReq.ID)
	require.NoError(t, h.Remove(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
