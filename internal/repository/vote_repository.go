package repository

import (
	"context"
	"database/sql"
)

// VoteRepo provides access to the 'votes' table. The unique key on
// (user_id, request_id) is the single authority for the one-vote-per-
// user invariant: concurrent inserts for the same pair are serialized
// by the database and exactly one succeeds. No application-level
// pre-check is performed, since a check-then-insert leaves a race
// window between two concurrent casters.
type VoteRepo struct{ db *sql.DB }

// NewVoteRepo returns a new VoteRepo bound to the given database.
func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{db: db} }

// Insert records a vote for (userID, requestID) and returns the
// request's vote count as seen by the same transaction that performed
// the insert. Counting inside the transaction, rather than reading a
// pre-insert value and adding one, keeps the count correct under
// concurrent casters. A duplicate pair yields ErrDuplicateVote.
func (r *VoteRepo) Insert(ctx context.Context, userID, requestID uint64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO votes (user_id, request_id) VALUES (?,?)",
		userID, requestID); err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateVote
		}
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE request_id=?", requestID).Scan(&count); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return count, nil
}

// Delete removes the (userID, requestID) vote and returns the
// remaining count for the request. An absent vote yields
// ErrVoteNotFound rather than a silent success; calling Delete twice
// reports the second call as not found.
func (r *VoteRepo) Delete(ctx context.Context, userID, requestID uint64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM votes WHERE user_id=? AND request_id=?",
		userID, requestID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrVoteNotFound
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE request_id=?", requestID).Scan(&count); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return count, nil
}

// CountByRequest returns the current vote count for a request.
func (r *VoteRepo) CountByRequest(ctx context.Context, requestID uint64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE request_id=?", requestID).Scan(&count)
	return count, err
}

// HasVoted reports whether the user already voted on the request.
// This is only an optimization for read paths (rendering the UI);
// the unique key remains the authority during inserts.
func (r *VoteRepo) HasVoted(ctx context.Context, userID, requestID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM votes WHERE user_id=? AND request_id=? LIMIT 1",
		userID, requestID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
