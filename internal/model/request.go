package model

import "time"

// Request status values. A request starts PENDING and is moved by the
// owning DJ to APPROVED or REJECTED.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ValidStatus reports whether s is one of the known request statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Request is a song request submitted by a user for an event.
// VoteCount is never stored in the requests table; it is always
// computed from the votes table so it cannot drift.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the request belongs to.
//  UserID    – user who submitted the request.
//  Title     – song title.
//  Artist    – performing artist (optional).
//  Status    – PENDING, APPROVED or REJECTED.
//  VoteCount – derived count of votes; populated by queries, not a column.
//  CreatedAt – timestamp of creation; tie-breaker for vote ranking.
type Request struct {
	ID        uint64    // requests.id
	EventID   uint64    // requests.event_id
	UserID    uint64    // requests.user_id
	Title     string    // requests.title
	Artist    string    // requests.artist
	Status    string    // requests.status
	VoteCount int       // COUNT(*) over votes, derived
	CreatedAt time.Time // requests.created_at
}
