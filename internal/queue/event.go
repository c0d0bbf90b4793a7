// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer around them. Broker delivery is
// best-effort relative to the HTTP mutation that triggered it: errors
// are logged and returned so callers can ignore them without failing
// the request.
package queue

// RequestApprovedEvent is published when a DJ approves a song request.
// It carries enough information for downstream consumers (display
// walls, notifiers, analytics) without querying the primary database.
type RequestApprovedEvent struct {
	RequestID     uint64 `json:"request_id"`
	EventID       uint64 `json:"event_id"`
	EventName     string `json:"event_name"`
	EventSlug     string `json:"event_slug"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	RequesterName string `json:"requester_name"`
	VoteCount     int    `json:"vote_count"`
	ApprovedAt    string `json:"approved_at"`
}

// DJRegisteredEvent is published when a DJ account is created so the
// external mailer can send the verification e-mail. E-mail delivery
// itself lives outside this service.
type DJRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}
