package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

// DashboardHandler serves pull-based aggregations. All numbers are
// computed on demand from current rows; nothing here is derived from
// the push notifications.
type DashboardHandler struct {
	Dash *service.Dashboard
}

func NewDashboardHandler(dash *service.Dashboard) *DashboardHandler {
	if dash == nil {
		panic("nil dependency passed to NewDashboardHandler")
	}
	return &DashboardHandler{Dash: dash}
}

// Summary returns the full dashboard for one event: request counts by
// status, total votes, active users and the current top of the queue.
func (h *DashboardHandler) Summary(c echo.Context) error {
	eventID, err := paramID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sum, err := h.Dash.Summary(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sum)
}

// Top returns an event's highest-voted requests, optionally filtered
// by status (?status=PENDING) and limited (?limit=5).
func (h *DashboardHandler) Top(c echo.Context) error {
	eventID, err := paramID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Dash.TopRequests(ctx, eventID, status, limit)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]requestView, 0, len(list))
	for _, r := range list {
		out = append(out, toRequestView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "requests": out})
}

// DJStats returns per-event aggregate counts across all of the calling
// DJ's events.
func (h *DashboardHandler) DJStats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Dash.DJEventStats(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": stats})
}
