package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/handler"
)

// RegisterPublic registers unauthenticated read endpoints: slug lookup,
// the ranked request list and the dashboard aggregations. cache is the
// Redis response-cache middleware applied to the dashboard reads, where
// many viewers poll the same event; it is a pass-through when Redis is
// absent.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, rq *handler.RequestHandler, dash *handler.DashboardHandler, cache echo.MiddlewareFunc) {
	// Resolve a shared link's slug into an event.
	e.GET("/v1/events/slug/:slug", ev.GetBySlug)

	// The ranked queue, ordered by votes then submission time.
	e.GET("/v1/events/:event_id/requests", rq.List)

	// Dashboard aggregations are recomputed from current rows on each
	// uncached read.
	e.GET("/v1/events/:event_id/dashboard", dash.Summary, cache)
	e.GET("/v1/events/:event_id/dashboard/top", dash.Top, cache)
}

// RegisterLive registers the WebSocket endpoint for real-time
// notifications. Authentication happens inside the handler because
// browsers cannot attach headers to WebSocket dials.
func RegisterLive(e *echo.Echo, live *handler.LiveHandler) {
	e.GET("/v1/live", live.Serve)
}
