package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/handler"
	"github.com/iliyamo/live-song-requests/internal/middleware"
	"github.com/iliyamo/live-song-requests/internal/model"
)

// RegisterDJ registers DJ-scoped endpoints under /v1.
// All routes require a valid JWT and the DJ role.
func RegisterDJ(e *echo.Echo, ev *handler.EventHandler, rq *handler.RequestHandler, dash *handler.DashboardHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleDJ),
	)

	// ---- Events ----
	g.POST("/events", ev.Create)
	g.GET("/events", ev.ListMine)
	g.PATCH("/events/:event_id/active", ev.SetActive)
	g.DELETE("/events/:event_id", ev.Delete)

	// ---- Triage ----
	g.PATCH("/requests/:id/status", rq.SetStatus)

	// ---- Aggregates across the DJ's events ----
	g.GET("/dj/stats", dash.DJStats)
}
