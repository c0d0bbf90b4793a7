package model

import "time"

// Vote is a single user's endorsement of a request. The pair
// (UserID, RequestID) is unique; rows are only created or deleted,
// never updated.
type Vote struct {
	ID        uint64    // votes.id
	UserID    uint64    // votes.user_id
	RequestID uint64    // votes.request_id
	CreatedAt time.Time // votes.created_at
}
