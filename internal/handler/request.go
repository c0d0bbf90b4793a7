package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/hub"
	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/queue"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

// RequestHandler covers the life of a song request: submission by the
// audience, the public ranked listing, and triage by the owning DJ.
type RequestHandler struct {
	Requests *repository.RequestRepo
	Events   *repository.EventRepo
	Users    *repository.UserRepo
	Sessions *service.SessionTracker
	Hub      *hub.Hub
}

func NewRequestHandler(requests *repository.RequestRepo, events *repository.EventRepo, users *repository.UserRepo, sessions *service.SessionTracker, h *hub.Hub) *RequestHandler {
	if requests == nil || events == nil || users == nil || sessions == nil || h == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{Requests: requests, Events: events, Users: users, Sessions: sessions, Hub: h}
}

type submitReq struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type setStatusReq struct {
	Status string `json:"status"`
}

// Submit files a song request for an event. The caller's session for
// the event is created or refreshed first and its request counter
// incremented; crossing the per-session cap yields 429 before anything
// is written to the requests table.
func (h *RequestHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := paramID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ev.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event is closed"})
	}

	sess, _, err := h.Sessions.JoinOrRefresh(ctx, uid, eventID, c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session failed"})
	}
	if _, err := h.Sessions.IncrementRequestCount(ctx, sess.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "request limit reached for this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session failed"})
	}

	sr := model.Request{
		EventID: eventID,
		UserID:  uid,
		Title:   req.Title,
		Artist:  req.Artist,
		Status:  model.StatusPending,
	}
	if err := h.Requests.Create(ctx, &sr); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
	}

	h.Hub.Publish(eventID, hub.Notification{
		Type: hub.TypeRequestAdded,
		Payload: hub.RequestAddedPayload{
			EventID:       eventID,
			RequestID:     sr.ID,
			Title:         sr.Title,
			Artist:        sr.Artist,
			RequesterName: currentUsername(c),
		},
	})

	return c.JSON(http.StatusCreated, toRequestView(sr))
}

// List returns an event's requests ranked by vote count, oldest first
// among ties. Public: viewers poll this to render the queue.
func (h *RequestHandler) List(c echo.Context) error {
	eventID, err := paramID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Events.Exists(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	list, err := h.Requests.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]requestView, 0, len(list))
	for _, r := range list {
		out = append(out, toRequestView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "requests": out})
}

// SetStatus moves a request to APPROVED or REJECTED (or back to
// PENDING). Only the DJ owning the request's event may triage it. The
// change is fanned out to live viewers, and approvals are additionally
// published to the broker for setlist tooling.
func (h *RequestHandler) SetStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Requests.UpdateStatus(ctx, requestID, uid, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Hub.Publish(updated.EventID, hub.Notification{
		Type: hub.TypeRequestStatusUpdated,
		Payload: hub.RequestStatusUpdatedPayload{
			EventID:   updated.EventID,
			RequestID: updated.ID,
			Status:    updated.Status,
		},
	})

	if updated.Status == model.StatusApproved {
		h.publishApproved(updated)
	}

	return c.JSON(http.StatusOK, toRequestView(updated))
}

// publishApproved enriches the approved request with event and
// requester details and hands it to the broker off the request path.
// Failures are logged by the queue package and never surface to the
// triaging DJ.
func (h *RequestHandler) publishApproved(r model.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev, err := h.Events.GetByID(ctx, r.EventID)
		if err != nil {
			return
		}
		requester := ""
		if u, err := h.Users.GetByID(ctx, r.UserID); err == nil {
			requester = u.Username
		}
		_ = queue.PublishRequestApproved(ctx, queue.RequestApprovedEvent{
			RequestID:     r.ID,
			EventID:       ev.ID,
			EventName:     ev.Name,
			EventSlug:     ev.Slug,
			Title:         r.Title,
			Artist:        r.Artist,
			RequesterName: requester,
			VoteCount:     r.VoteCount,
			ApprovedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}()
}

// Delete removes a request. The submitter may retract their own
// request; the event's DJ may remove any request in their event.
func (h *RequestHandler) Delete(c echo.Context) error {
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

	if err := h.Requests.Delete(ctx, requestID, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
