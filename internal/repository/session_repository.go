package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/live-song-requests/internal/model"
)

// SessionRepo provides access to the 'sessions' table. One row exists
// per (user, event) pair, enforced by a unique key; Upsert relies on
// MySQL's INSERT ... ON DUPLICATE KEY UPDATE so concurrent joins for
// the same pair cannot create duplicates.
type SessionRepo struct{ db *sql.DB }

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = "id, user_id, event_id, client_ip, request_count, last_seen, created_at"

// Upsert creates the (userID, eventID) session or refreshes last_seen
// and client_ip on the existing row. The second return value reports
// whether a new row was created: MySQL returns 1 affected row for an
// insert and 2 for an update of an existing row, which is how a join
// is told apart from a refresh without a separate read.
func (r *SessionRepo) Upsert(ctx context.Context, userID, eventID uint64, clientIP string) (model.Session, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, event_id, client_ip, last_seen)
         VALUES (?,?,?,UTC_TIMESTAMP())
         ON DUPLICATE KEY UPDATE last_seen = UTC_TIMESTAMP(),
                                 client_ip = IF(VALUES(client_ip) <> '', VALUES(client_ip), client_ip)`,
		userID, eventID, clientIP)
	if err != nil {
		return model.Session{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Session{}, false, err
	}
	isNew := n == 1

	var s model.Session
	err = r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id=? AND event_id=? LIMIT 1",
		userID, eventID).Scan(&s.ID, &s.UserID, &s.EventID, &s.ClientIP, &s.RequestCount, &s.LastSeen, &s.CreatedAt)
	if err != nil {
		return model.Session{}, false, err
	}
	return s, isNew, nil
}

// GetByID fetches a session by id.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &s.EventID, &s.ClientIP, &s.RequestCount, &s.LastSeen, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSessionNotFound
	}
	return s, err
}

// Touch refreshes last_seen without changing the request counter.
func (r *SessionRepo) Touch(ctx context.Context, sessionID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_seen=UTC_TIMESTAMP() WHERE id=?", sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// IncrementRequestCount bumps the session's request counter and
// refreshes last_seen, returning the new count. The increment happens
// in SQL so concurrent submissions through the same session cannot
// lose updates.
func (r *SessionRepo) IncrementRequestCount(ctx context.Context, sessionID uint64) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET request_count=request_count+1, last_seen=UTC_TIMESTAMP() WHERE id=?",
		sessionID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrSessionNotFound
	}
	var count int
	err = r.db.QueryRowContext(ctx,
		"SELECT request_count FROM sessions WHERE id=?", sessionID).Scan(&count)
	return count, err
}

// CountActive returns the number of sessions for an event whose
// last_seen is newer than the given cutoff. "Active" is always this
// derived read; no maintained counter exists that could drift from
// missed decrements.
func (r *SessionRepo) CountActive(ctx context.Context, eventID uint64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE event_id=? AND last_seen > ?",
		eventID, since.UTC()).Scan(&count)
	return count, err
}

// DeleteStale removes sessions whose last_seen is older than the
// cutoff. Housekeeping only: the active-user window predicate above
// stays correct whether or not stale rows have been reaped yet.
func (r *SessionRepo) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_seen < ?", olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
