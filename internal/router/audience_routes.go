package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/handler"
	"github.com/iliyamo/live-song-requests/internal/middleware"
)

// RegisterAudience registers the write endpoints available to any
// authenticated user (audience or DJ): submitting requests, voting and
// retracting. rateLimit is the Redis token-bucket middleware; it guards
// the burst-prone vote and submit routes and is a pass-through when
// Redis is absent.
func RegisterAudience(e *echo.Echo, rq *handler.RequestHandler, v *handler.VoteHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		rateLimit,
	)

	// ---- Song requests ----
	g.POST("/events/:event_id/requests", rq.Submit)
	g.DELETE("/requests/:id", rq.Delete)

	// ---- Votes ----
	g.POST("/requests/:id/vote", v.Cast)
	g.GET("/requests/:id/vote", v.Status)
	g.DELETE("/requests/:id/vote", v.Remove)
}
