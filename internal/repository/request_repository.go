package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/live-song-requests/internal/model"
)

// RequestRepo provides access to the 'requests' table. Vote counts
// are never stored on the request row; every read computes them with
// a COUNT(*) over the votes table so the value cannot drift from the
// vote set.
type RequestRepo struct{ db *sql.DB }

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// Create inserts a new request with PENDING status and populates the
// generated ID and timestamp on the provided struct.
func (r *RequestRepo) Create(ctx context.Context, req *model.Request) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO requests (event_id, user_id, title, artist) VALUES (?,?,?,?)",
		req.EventID, req.UserID, req.Title, req.Artist)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.StatusPending
	req.VoteCount = 0
	// Query back the DB-assigned timestamp
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM requests WHERE id=?", req.ID).Scan(&req.CreatedAt)
}

const requestWithVotes = `SELECT r.id, r.event_id, r.user_id, r.title, r.artist, r.status, r.created_at,
       (SELECT COUNT(*) FROM votes v WHERE v.request_id = r.id) AS vote_count
FROM requests r`

// GetByID fetches a request together with its freshly computed vote
// count. Returns ErrRequestNotFound when the row is absent.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.Request, error) {
	var req model.Request
	err := r.db.QueryRowContext(ctx, requestWithVotes+" WHERE r.id=?", id).Scan(
		&req.ID, &req.EventID, &req.UserID, &req.Title, &req.Artist, &req.Status, &req.CreatedAt, &req.VoteCount)
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrRequestNotFound
	}
	return req, err
}

// Exists reports whether a request with the given id exists.
func (r *RequestRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM requests WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByEvent returns the requests of an event ordered by vote count
// descending. Ties break on creation time ascending and then id, so
// pagination stays stable across calls.
func (r *RequestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		requestWithVotes+" WHERE r.event_id=? ORDER BY vote_count DESC, r.created_at ASC, r.id ASC",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.Request, 0)
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(&req.ID, &req.EventID, &req.UserID, &req.Title, &req.Artist, &req.Status, &req.CreatedAt, &req.VoteCount); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus moves a request to a new status. Only the DJ who owns
// the request's event may change it; ownership is checked through a
// JOIN so the check and the current state come from one read.
// Returns the updated request on success.
func (r *RequestRepo) UpdateStatus(ctx context.Context, requestID, djUserID uint64, status string) (model.Request, error) {
	var req model.Request
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT e.dj_user_id FROM requests r JOIN events e ON e.id = r.event_id WHERE r.id = ?`,
		requestID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrRequestNotFound
	}
	if err != nil {
		return req, err
	}
	if ownerID != djUserID {
		return req, ErrForbidden
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE requests SET status=? WHERE id=?", status, requestID); err != nil {
		return req, err
	}
	// Re-read so the caller broadcasts post-mutation state, not its input
	return r.GetByID(ctx, requestID)
}

// Delete removes a request when the caller is either the submitting
// user or the DJ owning the event. Votes cascade away with the row.
func (r *RequestRepo) Delete(ctx context.Context, requestID, callerID uint64) error {
	var submitterID, ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT r.user_id, e.dj_user_id FROM requests r JOIN events e ON e.id = r.event_id WHERE r.id = ?`,
		requestID).Scan(&submitterID, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	if callerID != submitterID && callerID != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM requests WHERE id=?", requestID)
	return err
}
