// Package hub provides the in-memory fan-out used to push live
// notifications to viewers. Subscribers are grouped by event ID; a
// Publish for one event reaches every current subscriber of that
// event and nobody else. Delivery is best-effort and at-most-once per
// connected viewer: nothing is queued or replayed, and a reconnecting
// viewer is expected to re-fetch current state with a pull query.
package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Notification event types pushed to viewers.
const (
	TypeRequestAdded         = "request_added"
	TypeRequestStatusUpdated = "request_status_updated"
	TypeVoteAdded            = "vote_added"
	TypeVoteRemoved          = "vote_removed"
	TypeUserJoinedEvent      = "user_joined_event"
)

// Notification is one typed message delivered to subscribers.
// Payload is a JSON-marshalable value built from post-mutation state.
type Notification struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Payload shapes for each notification type.
type (
	RequestAddedPayload struct {
		EventID       uint64 `json:"event_id"`
		RequestID     uint64 `json:"request_id"`
		Title         string `json:"title"`
		Artist        string `json:"artist"`
		RequesterName string `json:"requester_name"`
	}
	RequestStatusUpdatedPayload struct {
		EventID   uint64 `json:"event_id"`
		RequestID uint64 `json:"request_id"`
		Status    string `json:"status"`
	}
	VoteAddedPayload struct {
		EventID   uint64 `json:"event_id"`
		RequestID uint64 `json:"request_id"`
		VoteCount int    `json:"vote_count"`
		UserID    uint64 `json:"user_id"`
	}
	VoteRemovedPayload struct {
		EventID   uint64 `json:"event_id"`
		RequestID uint64 `json:"request_id"`
		VoteCount int    `json:"vote_count"`
	}
	UserJoinedPayload struct {
		EventID  uint64 `json:"event_id"`
		Username string `json:"username"`
	}
)

const subscriberBufSize = 64

// Subscription is the handle returned by Subscribe. The owner reads
// notifications from C until Unsubscribe closes it.
type Subscription struct {
	ID      string
	EventID uint64
	C       chan Notification
}

// Hub groups live subscriptions by event ID and fans out published
// notifications to each group. All map access goes through Subscribe,
// Unsubscribe and Publish; the mutex makes concurrent mutation and
// iteration safe, and sends are non-blocking so one slow or
// half-disconnected viewer can never stall delivery to the rest.
type Hub struct {
	mu     sync.RWMutex
	groups map[uint64]map[*Subscription]struct{}
}

// New creates a ready-to-use Hub. One instance lives for the whole
// process, created at boot.
func New() *Hub {
	return &Hub{groups: make(map[uint64]map[*Subscription]struct{})}
}

// Subscribe registers a viewer for one event's notifications and
// returns the subscription handle. The channel is buffered; a viewer
// that falls behind by more than the buffer has messages dropped
// rather than blocking the publisher.
func (h *Hub) Subscribe(eventID uint64) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		EventID: eventID,
		C:       make(chan Notification, subscriberBufSize),
	}
	h.mu.Lock()
	if h.groups[eventID] == nil {
		h.groups[eventID] = make(map[*Subscription]struct{})
	}
	h.groups[eventID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription from its group and closes its
// channel. Safe to call once per subscription; empty groups are
// cleaned up so event IDs do not accumulate forever.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[sub.EventID]
	if !ok {
		return
	}
	if _, ok := group[sub]; !ok {
		return
	}
	delete(group, sub)
	if len(group) == 0 {
		delete(h.groups, sub.EventID)
	}
	close(sub.C)
}

// Publish delivers a notification to every current subscriber of the
// event. Non-blocking per viewer: a full buffer drops the message for
// that viewer only. Only the addressed event's group is touched, so
// cross-event delivery never happens.
func (h *Hub) Publish(eventID uint64, n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.groups[eventID] {
		select {
		case sub.C <- n:
		default:
			// drop for slow subscriber
		}
	}
}

// GroupSize returns the number of live subscriptions for an event.
func (h *Hub) GroupSize(eventID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[eventID])
}
