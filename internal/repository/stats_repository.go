package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/live-song-requests/internal/model"
)

// StatsRepo runs the aggregate queries behind the DJ dashboard. Every
// method computes its numbers fresh from the requests/votes/sessions
// tables at call time; nothing here maintains counters that could
// drift from the underlying rows.
type StatsRepo struct{ db *sql.DB }

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// StatusCounts holds per-status request totals for one event.
type StatusCounts struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// CountRequestsByStatus returns request totals for an event grouped
// by status.
func (r *StatsRepo) CountRequestsByStatus(ctx context.Context, eventID uint64) (StatusCounts, error) {
	var c StatusCounts
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM requests WHERE event_id=? GROUP BY status", eventID)
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		switch status {
		case model.StatusPending:
			c.Pending = n
		case model.StatusApproved:
			c.Approved = n
		case model.StatusRejected:
			c.Rejected = n
		}
		c.Total += n
	}
	return c, rows.Err()
}

// CountVotes returns the total number of votes across all requests of
// an event.
func (r *StatsRepo) CountVotes(ctx context.Context, eventID uint64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes v JOIN requests r ON r.id = v.request_id WHERE r.event_id=?`,
		eventID).Scan(&count)
	return count, err
}

const topRequestsQuery = `SELECT r.id, r.event_id, r.user_id, r.title, r.artist, r.status, r.created_at,
       (SELECT COUNT(*) FROM votes v WHERE v.request_id = r.id) AS vote_count
FROM requests r
WHERE r.event_id = ?`

// TopRequests returns up to limit requests for the event ordered by
// vote count descending. Ties break on creation time ascending, then
// id, so the ranking is deterministic across calls. The optional
// status filter narrows to one status; pass "" for all. The LIMIT is
// applied by the database after the ORDER BY, never before.
func (r *StatsRepo) TopRequests(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error) {
	q := topRequestsQuery
	args := []interface{}{eventID}
	if status != "" {
		q += " AND r.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY vote_count DESC, r.created_at ASC, r.id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.Request, 0, limit)
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(&req.ID, &req.EventID, &req.UserID, &req.Title, &req.Artist, &req.Status, &req.CreatedAt, &req.VoteCount); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// RecentByStatus returns the most recently created requests of an
// event in the given status, newest first.
func (r *StatsRepo) RecentByStatus(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		topRequestsQuery+" AND r.status = ? ORDER BY r.created_at DESC, r.id DESC LIMIT ?",
		eventID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.Request, 0, limit)
	for rows.Next() {
		var req model.Request
		if err := rows.Scan(&req.ID, &req.EventID, &req.UserID, &req.Title, &req.Artist, &req.Status, &req.CreatedAt, &req.VoteCount); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// DJEventStat summarises one event for the per-DJ overview.
type DJEventStat struct {
	EventID       uint64 `json:"event_id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	IsActive      bool   `json:"is_active"`
	TotalRequests int    `json:"total_requests"`
	TotalVotes    int    `json:"total_votes"`
}

// StatsByDJ returns one row per event owned by the DJ with request
// and vote totals, newest event first.
func (r *StatsRepo) StatsByDJ(ctx context.Context, djUserID uint64) ([]DJEventStat, error) {
	const q = `SELECT e.id, e.name, e.slug, e.is_active,
       (SELECT COUNT(*) FROM requests r WHERE r.event_id = e.id) AS total_requests,
       (SELECT COUNT(*) FROM votes v JOIN requests r ON r.id = v.request_id WHERE r.event_id = e.id) AS total_votes
FROM events e
WHERE e.dj_user_id = ?
ORDER BY e.created_at DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, q, djUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]DJEventStat, 0)
	for rows.Next() {
		var s DJEventStat
		if err := rows.Scan(&s.EventID, &s.Name, &s.Slug, &s.IsActive, &s.TotalRequests, &s.TotalVotes); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
