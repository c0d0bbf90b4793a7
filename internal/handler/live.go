package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-song-requests/internal/config"
	"github.com/iliyamo/live-song-requests/internal/hub"
	"github.com/iliyamo/live-song-requests/internal/service"
	"github.com/iliyamo/live-song-requests/internal/utils"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 30 * time.Second
	liveReadLimit  = 512
)

// LiveHandler upgrades viewer connections to WebSocket and bridges them
// to the hub. A connection follows events one at a time: a "join"
// subscribes it to that event's notifications (leaving the previous
// event first), "leave" unsubscribes. Joining also creates or refreshes
// the viewer's per-event session, which feeds the active-user count.
type LiveHandler struct {
	Cfg      config.Config
	Hub      *hub.Hub
	Events   service.EventExistsStore
	Sessions *service.SessionTracker

	upgrader websocket.Upgrader
}

func NewLiveHandler(cfg config.Config, h *hub.Hub, events service.EventExistsStore, sessions *service.SessionTracker) *LiveHandler {
	if h == nil || events == nil || sessions == nil {
		panic("nil dependency passed to NewLiveHandler")
	}
	return &LiveHandler{
		Cfg:      cfg,
		Hub:      h,
		Events:   events,
		Sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary venue pages.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// liveConn serializes writes; the hub forwarder, the ping ticker and
// the read loop all write to the same socket.
type liveConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (lc *liveConn) send(v interface{}) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_ = lc.ws.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return lc.ws.WriteJSON(v)
}

func (lc *liveConn) ping() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
}

type liveClientMsg struct {
	Action  string `json:"action"`
	EventID uint64 `json:"event_id"`
}

type liveServerMsg struct {
	Type    string `json:"type"`
	EventID uint64 `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve authenticates the caller and runs the connection until the
// client goes away. Browsers cannot set headers on WebSocket dials, so
// the access token is also accepted as a ?token= query parameter.
func (h *LiveHandler) Serve(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("token"))
	if raw == "" {
		if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	userID, username, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	lc := &liveConn{ws: ws}
	defer ws.Close()

	ws.SetReadLimit(liveReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(livePongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(livePongWait))
	})

	// Keepalive pings; the pong handler above extends the read deadline.
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		t := time.NewTicker(livePingPeriod)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if lc.ping() != nil {
					return
				}
			case <-stopPing:
				return
			}
		}
	}()

	clientIP := c.RealIP()
	var sub *hub.Subscription
	var sessionID uint64
	defer func() {
		if sub != nil {
			h.Hub.Unsubscribe(sub)
		}
	}()

	for {
		var msg liveClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			return nil
		}

		switch strings.ToLower(msg.Action) {
		case "join":
			if msg.EventID == 0 {
				_ = lc.send(liveServerMsg{Type: "error", Error: "event_id required"})
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ok, err := h.Events.Exists(ctx, msg.EventID)
			if err != nil || !ok {
				cancel()
				_ = lc.send(liveServerMsg{Type: "error", EventID: msg.EventID, Error: "event not found"})
				continue
			}

			sess, isNew, err := h.Sessions.JoinOrRefresh(ctx, userID, msg.EventID, clientIP)
			cancel()
			if err != nil {
				_ = lc.send(liveServerMsg{Type: "error", EventID: msg.EventID, Error: "join failed"})
				continue
			}
			sessionID = sess.ID

			if sub != nil {
				h.Hub.Unsubscribe(sub)
			}
			sub = h.Hub.Subscribe(msg.EventID)
			go forwardNotifications(lc, sub)

			// Announce only genuinely new sessions; a reconnect is not a join.
			if isNew {
				h.Hub.Publish(msg.EventID, hub.Notification{
					Type: hub.TypeUserJoinedEvent,
					Payload: hub.UserJoinedPayload{
						EventID:  msg.EventID,
						Username: username,
					},
				})
			}
			_ = lc.send(liveServerMsg{Type: "joined", EventID: msg.EventID})

		case "leave":
			if sub != nil {
				h.Hub.Unsubscribe(sub)
				sub = nil
			}
			_ = lc.send(liveServerMsg{Type: "left"})

		case "ping":
			if sessionID != 0 {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = h.Sessions.Touch(ctx, sessionID)
				cancel()
			}
			_ = lc.send(liveServerMsg{Type: "pong"})

		default:
			_ = lc.send(liveServerMsg{Type: "error", Error: "unknown action"})
		}
	}
}

// forwardNotifications copies hub notifications to the socket until the
// subscription channel is closed by Unsubscribe or the write fails.
func forwardNotifications(lc *liveConn, sub *hub.Subscription) {
	for n := range sub.C {
		if err := lc.send(n); err != nil {
			return
		}
	}
}
