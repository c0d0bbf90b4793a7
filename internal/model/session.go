package model

import "time"

// Session is per-(user, event) activity bookkeeping used for rate
// limiting and presence. One row exists per pair; it is upserted on
// join and on activity. "Active" is a predicate over LastSeen, not a
// stored flag: a session counts as active while LastSeen falls inside
// the configured recency window.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user this session belongs to.
//  EventID      – event the user joined.
//  ClientIP     – last observed client address.
//  RequestCount – number of song requests submitted through this session.
//  LastSeen     – timestamp of the most recent activity.
//  CreatedAt    – timestamp of creation.
type Session struct {
	ID           uint64    // sessions.id
	UserID       uint64    // sessions.user_id
	EventID      uint64    // sessions.event_id
	ClientIP     string    // sessions.client_ip
	RequestCount int       // sessions.request_count
	LastSeen     time.Time // sessions.last_seen
	CreatedAt    time.Time // sessions.created_at
}
