package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/live-song-requests/internal/config"
)

func rateCtx(t *testing.T, uid uint64, paramName, paramValue string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events/:event_id/requests")
	if uid != 0 {
		c.Set("user_id", uid)
	}
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}
	return c
}

func TestBuildRateKeyUserEvent(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_event"}

	c := rateCtx(t, 42, "event_id", "7")
	require.Equal(t, "rl:user:42:ev:7", buildRateKey(cfg, c))

	// Vote routes carry the request id instead; the bucket still
	// scopes to one user's actions on one target.
	c = rateCtx(t, 42, "id", "99")
	require.Equal(t, "rl:user:42:req:99", buildRateKey(cfg, c))

	// Separate events never share a bucket.
	require.NotEqual(t,
		buildRateKey(cfg, rateCtx(t, 42, "event_id", "7")),
		buildRateKey(cfg, rateCtx(t, 42, "event_id", "8")))

	// Neither do separate users in the same event.
	require.NotEqual(t,
		buildRateKey(cfg, rateCtx(t, 42, "event_id", "7")),
		buildRateKey(cfg, rateCtx(t, 43, "event_id", "7")))
}

func TestBuildRateKeyStrategies(t *testing.T) {
	c := rateCtx(t, 42, "event_id", "7")

	require.Equal(t, "rl:ip:203.0.113.9",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	require.Equal(t, "rl:user:42",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	require.Equal(t, "rl:ip:203.0.113.9:user:42",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}, c))
}

func TestBuildRateKeyGuestFallsBackToRoute(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_event"}
	c := rateCtx(t, 0, "", "")
	require.Equal(t, "rl:user:guest:route:POST /v1/events/:event_id/requests", buildRateKey(cfg, c))
}
