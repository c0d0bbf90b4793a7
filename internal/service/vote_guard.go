// Package service holds the domain logic between the HTTP handlers
// and the repositories: vote integrity, session tracking and the
// dashboard aggregation. Services depend on small store interfaces so
// the MySQL repositories and the in-memory store used in tests are
// interchangeable.
package service

import (
	"context"

	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
)

// VoteStore is the persistence surface VoteGuard needs. Insert must
// enforce the (user, request) unique constraint itself and return
// repository.ErrDuplicateVote on violation; the count it returns must
// come from the same transaction that performed the write.
type VoteStore interface {
	Insert(ctx context.Context, userID, requestID uint64) (int, error)
	Delete(ctx context.Context, userID, requestID uint64) (int, error)
	HasVoted(ctx context.Context, userID, requestID uint64) (bool, error)
	CountByRequest(ctx context.Context, requestID uint64) (int, error)
}

// VoteRequestStore resolves the entities a vote refers to.
type VoteRequestStore interface {
	GetByID(ctx context.Context, id uint64) (model.Request, error)
}

// VoteUserStore checks that the voting user exists.
type VoteUserStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// VoteGuard accepts vote-cast and vote-remove intents and enforces the
// at-most-one-vote invariant against the store. Authorization (the
// caller acting for userID) is the orchestrator's job; by the time a
// call reaches this component it is assumed to have passed.
type VoteGuard struct {
	votes    VoteStore
	requests VoteRequestStore
	users    VoteUserStore
}

// NewVoteGuard wires a VoteGuard to its stores.
func NewVoteGuard(votes VoteStore, requests VoteRequestStore, users VoteUserStore) *VoteGuard {
	return &VoteGuard{votes: votes, requests: requests, users: users}
}

// CastVote records userID's vote on requestID and returns the
// resulting vote count together with the request it landed on. The
// store's unique key decides the winner under concurrent casts of the
// same pair; for N concurrent calls exactly one succeeds and the rest
// get repository.ErrDuplicateVote. A duplicate is a visible conflict,
// never a silent no-op, because the caller's UI depends on knowing
// whether the action took effect.
func (g *VoteGuard) CastVote(ctx context.Context, userID, requestID uint64) (model.Request, int, error) {
	req, err := g.requests.GetByID(ctx, requestID)
	if err != nil {
		return model.Request{}, 0, err
	}
	ok, err := g.users.Exists(ctx, userID)
	if err != nil {
		return model.Request{}, 0, err
	}
	if !ok {
		return model.Request{}, 0, repository.ErrUserNotFound
	}
	count, err := g.votes.Insert(ctx, userID, requestID)
	if err != nil {
		return model.Request{}, 0, err
	}
	req.VoteCount = count
	return req, count, nil
}

// VoteStatus reports whether userID has voted on requestID and the
// request's current count. Read path only; nothing here is
// authoritative for a later cast, where the store's unique key still
// decides.
func (g *VoteGuard) VoteStatus(ctx context.Context, userID, requestID uint64) (bool, int, error) {
	if _, err := g.requests.GetByID(ctx, requestID); err != nil {
		return false, 0, err
	}
	voted, err := g.votes.HasVoted(ctx, userID, requestID)
	if err != nil {
		return false, 0, err
	}
	count, err := g.votes.CountByRequest(ctx, requestID)
	if err != nil {
		return false, 0, err
	}
	return voted, count, nil
}

// RemoveVote deletes userID's vote on requestID and returns the
// remaining count. Removing an absent vote (including a second remove
// after a successful one) surfaces repository.ErrVoteNotFound.
func (g *VoteGuard) RemoveVote(ctx context.Context, userID, requestID uint64) (model.Request, int, error) {
	req, err := g.requests.GetByID(ctx, requestID)
	if err != nil {
		return model.Request{}, 0, err
	}
	count, err := g.votes.Delete(ctx, userID, requestID)
	if err != nil {
		return model.Request{}, 0, err
	}
	req.VoteCount = count
	return req, count, nil
}
