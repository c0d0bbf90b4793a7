// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrDuplicateVote indicates that the unique (user, request)
// key on the votes table rejected an insert, while ErrForbidden
// signals that the current user is not authorized to perform an
// operation on a resource owned by someone else.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot proceed because of
// conflicting state, such as a session exceeding its request quota.
// Handlers should translate this into an HTTP 409 or 429 response.
var ErrConflict = errors.New("conflict")

// ErrUsernameExists is returned when registering or joining with a
// username that is already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrSlugExists is returned when creating an event with a slug that
// another event already uses.
var ErrSlugExists = errors.New("slug already exists")

// ErrDuplicateVote is returned when a user attempts to vote twice on
// the same request. The votes table's unique key is the authority for
// this error; it is never derived from a pre-check alone.
var ErrDuplicateVote = errors.New("already voted")

// ErrVoteNotFound is returned when removing a vote that does not
// exist. Removal of an absent vote is reported, never swallowed,
// because the caller's UI depends on knowing whether the action
// took effect.
var ErrVoteNotFound = errors.New("vote not found")

// ErrUserNotFound, ErrEventNotFound, ErrRequestNotFound and
// ErrSessionNotFound report absent referenced entities. They map to
// HTTP 404 and are distinct from an empty result set.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrSessionNotFound = errors.New("session not found")
)

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (error 1062). Repositories use it to convert driver errors into the
// typed conflict sentinels above.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
