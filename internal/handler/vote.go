package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/hub"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

// VoteHandler casts and retracts votes. The uniqueness guarantee (at
// most one vote per user per request, under any concurrency) lives in
// the vote guard and ultimately in the votes table's unique key; the
// handler only maps outcomes to HTTP statuses and fans out the new
// count.
type VoteHandler struct {
	Guard *service.VoteGuard
	Hub   *hub.Hub
}

func NewVoteHandler(guard *service.VoteGuard, h *hub.Hub) *VoteHandler {
	if guard == nil || h == nil {
		panic("nil dependency passed to NewVoteHandler")
	}
	return &VoteHandler{Guard: guard, Hub: h}
}

// Cast records the caller's vote on a request. A second vote on the
// same request answers 409 and leaves the count untouched.
func (h *VoteHandler) Cast(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, count, err := h.Guard.CastVote(ctx, uid, requestID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateVote):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already voted"})
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vote failed"})
	}

	h.Hub.Publish(req.EventID, hub.Notification{
		Type: hub.TypeVoteAdded,
		Payload: hub.VoteAddedPayload{
			EventID:   req.EventID,
			RequestID: req.ID,
			VoteCount: count,
			UserID:    uid,
		},
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"request_id": req.ID,
		"vote_count": count,
	})
}

// Status reports whether the caller has voted on a request along with
// its current count, so a reconnecting client can render its buttons
// without replaying notifications.
func (h *VoteHandler) Status(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	voted, count, err := h.Guard.VoteStatus(ctx, uid, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"request_id": requestID,
		"voted":      voted,
		"vote_count": count,
	})
}

// Remove retracts the caller's vote. Retracting a vote that was never
// cast answers 404.
func (h *VoteHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, count, err := h.Guard.RemoveVote(ctx, uid, requestID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVoteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vote not found"})
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unvote failed"})
	}

	h.Hub.Publish(req.EventID, hub.Notification{
		Type: hub.TypeVoteRemoved,
		Payload: hub.VoteRemovedPayload{
			EventID:   req.EventID,
			RequestID: req.ID,
			VoteCount: count,
		},
	})

	return c.JSON(http.StatusOK, echo.Map{
		"request_id": req.ID,
		"vote_count": count,
	})
}
