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

	"github.com/iliyamo/live-song-requests/internal/memory"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/service"
)

func newDashboardTestEnv(t *testing.T) (*DashboardHandler, *memory.Store, model.Event) {
	t.Helper()
	store := memory.New()
	dj := store.AddUser("dj-ada", model.RoleDJ)
	ev := store.AddEvent(dj.ID, "Warehouse Night", "warehouse-night")
	fan := store.AddUser("fan-bo", model.RoleAudience)

	r := store.AddRequest(ev.ID, fan.ID, "One More Time", time.Now().UTC())
	guard := service.NewVoteGuard(store, store, store)
	if _, _, err := guard.CastVote(ctxBG(), fan.ID, r.ID); err != nil {
		t.Fatal(err)
	}

	dash := service.NewDashboard(store, store.Events(), store, 15*time.Minute)
	return NewDashboardHandler(dash), store, ev
}

func dashboardContext(path string, eventID uint64, query string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	target := "/"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames("event_id")
	c.SetParamValues(strconv.FormatUint(eventID, 10))
	return c, rec
}

func TestDashboardSummary(t *testing.T) {
	h, _, ev := newDashboardTestEnv(t)

	c, rec := dashboardContext("/v1/events/:event_id/dashboard", ev.ID, "")
	require.NoError(t, h.Summary(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var sum service.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, ev.ID, sum.EventID)
	require.Equal(t, 1, sum.TotalRequests)
	require.Equal(t, 1, sum.TotalVotes)
	require.Len(t, sum.TopRequests, 1)
}

func TestDashboardSummaryUnknownEventReturns404(t *testing.T) {
	h, _, _ := newDashboardTestEnv(t)

	c, rec := dashboardContext("/v1/events/:event_id/dashboard", 9999, "")
	require.NoError(t, h.Summary(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardTopWithStatusFilter(t *testing.T) {
	h, store, ev := newDashboardTestEnv(t)
	approved := store.AddRequest(ev.ID, 2, "Approved Track", time.Now().UTC())
	store.SetRequestStatus(approved.ID, model.StatusApproved)

	c, rec := dashboardContext("/v1/events/:event_id/dashboard/top", ev.ID, "status=approved&limit=5")
	require.NoError(t, h.Top(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Requests []requestView `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Requests, 1)
	require.Equal(t, approved.ID, body.Requests[0].ID)
}

func TestDashboardTopRejectsBadStatus(t *testing.T) {
	h, _, ev := newDashboardTestEnv(t)

	c, rec := dashboardContext("/v1/events/:event_id/dashboard/top", ev.ID, "status=bogus")
	require.NoError(t, h.Top(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
