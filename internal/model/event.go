package model

import "time"

// Event is a DJ-hosted live session that audience members join by slug.
// Events are normally deactivated rather than deleted; a hard delete
// cascades to requests, votes and sessions.
//
// Fields:
//  ID        – primary key identifier.
//  DJUserID  – the DJ who owns the event.
//  Name      – display name shown to the audience.
//  Slug      – unique URL-safe identifier used to join.
//  IsActive  – whether the event currently accepts requests and votes.
//  CreatedAt – timestamp of creation.
type Event struct {
	ID        uint64    // events.id
	DJUserID  uint64    // events.dj_user_id
	Name      string    // events.name
	Slug      string    // events.slug
	IsActive  bool      // events.is_active
	CreatedAt time.Time // events.created_at
}
