package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types
	"strings" // strings provides trimming and case helpers
	"time"    // time formats timestamps in responses

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/live-song-requests/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentUsername returns the username placed in context by JWTAuth,
// or "" for unauthenticated requests.
func currentUsername(c echo.Context) string {
	if s, ok := c.Get("username").(string); ok {
		return s
	}
	return ""
}

// paramID parses a numeric path parameter like :id or :event_id.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// slugify derives a URL-safe event slug from a display name: lowercase
// ASCII letters and digits, runs of anything else collapsed to single
// dashes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// requestView is the JSON shape for a song request in list and detail
// responses.
type requestView struct {
	ID        uint64    `json:"id"`
	EventID   uint64    `json:"event_id"`
	UserID    uint64    `json:"user_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist,omitempty"`
	Status    string    `json:"status"`
	VoteCount int       `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

func toRequestView(r model.Request) requestView {
	return requestView{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Title:     r.Title,
		Artist:    r.Artist,
		Status:    r.Status,
		VoteCount: r.VoteCount,
		CreatedAt: r.CreatedAt,
	}
}

// eventView is the JSON shape for an event.
type eventView struct {
	ID        uint64    `json:"id"`
	DJUserID  uint64    `json:"dj_user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventView(e model.Event) eventView {
	return eventView{
		ID:        e.ID,
		DJUserID:  e.DJUserID,
		Name:      e.Name,
		Slug:      e.Slug,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
}
