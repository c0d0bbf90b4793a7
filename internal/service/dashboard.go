package service

import (
	"context"
	"time"

	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
)

// StatsStore is the aggregate-query surface the Dashboard needs.
// Implementations must compute every number fresh at call time.
type StatsStore interface {
	CountRequestsByStatus(ctx context.Context, eventID uint64) (repository.StatusCounts, error)
	CountVotes(ctx context.Context, eventID uint64) (int, error)
	TopRequests(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error)
	RecentByStatus(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error)
	StatsByDJ(ctx context.Context, djUserID uint64) ([]repository.DJEventStat, error)
}

// EventExistsStore distinguishes "event has no data" from "event does
// not exist".
type EventExistsStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// SessionCountStore exposes the active-session count the summary
// embeds.
type SessionCountStore interface {
	CountActive(ctx context.Context, eventID uint64, since time.Time) (int, error)
}

// Summary is the pull-based dashboard snapshot for one event.
// Dashboard reads are advisory: they are not transactionally
// consistent with concurrent vote casts, and that is accepted.
type Summary struct {
	EventID          uint64          `json:"event_id"`
	TotalRequests    int             `json:"total_requests"`
	PendingRequests  int             `json:"pending_requests"`
	ApprovedRequests int             `json:"approved_requests"`
	RejectedRequests int             `json:"rejected_requests"`
	TotalVotes       int             `json:"total_votes"`
	ActiveUsers      int             `json:"active_users"`
	TopRequests      []model.Request `json:"top_requests"`
	RecentlyApproved []model.Request `json:"recently_approved"`
	RecentlyRejected []model.Request `json:"recently_rejected"`
}

// Defaults for list sizes inside a summary.
const (
	summaryTopN    = 10
	summaryRecentN = 5
)

// Dashboard computes on-demand statistics for events. Nothing is
// cached between calls.
type Dashboard struct {
	stats        StatsStore
	events       EventExistsStore
	sessions     SessionCountStore
	activeWindow time.Duration
}

// NewDashboard wires a Dashboard to its stores. activeWindow is the
// recency window used for the active-user count.
func NewDashboard(stats StatsStore, events EventExistsStore, sessions SessionCountStore, activeWindow time.Duration) *Dashboard {
	return &Dashboard{stats: stats, events: events, sessions: sessions, activeWindow: activeWindow}
}

// Summary assembles the live dashboard for one event. An unknown
// event yields repository.ErrEventNotFound, never a zeroed summary,
// so "no data yet" and "no such event" stay distinguishable.
func (d *Dashboard) Summary(ctx context.Context, eventID uint64) (Summary, error) {
	ok, err := d.events.Exists(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{}, repository.ErrEventNotFound
	}

	counts, err := d.stats.CountRequestsByStatus(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	votes, err := d.stats.CountVotes(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	active, err := d.sessions.CountActive(ctx, eventID, time.Now().UTC().Add(-d.activeWindow))
	if err != nil {
		return Summary{}, err
	}
	top, err := d.stats.TopRequests(ctx, eventID, "", summaryTopN)
	if err != nil {
		return Summary{}, err
	}
	approved, err := d.stats.RecentByStatus(ctx, eventID, model.StatusApproved, summaryRecentN)
	if err != nil {
		return Summary{}, err
	}
	rejected, err := d.stats.RecentByStatus(ctx, eventID, model.StatusRejected, summaryRecentN)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		EventID:          eventID,
		TotalRequests:    counts.Total,
		PendingRequests:  counts.Pending,
		ApprovedRequests: counts.Approved,
		RejectedRequests: counts.Rejected,
		TotalVotes:       votes,
		ActiveUsers:      active,
		TopRequests:      top,
		RecentlyApproved: approved,
		RecentlyRejected: rejected,
	}, nil
}

// TopRequests returns the event's requests ranked by vote count
// descending with ties broken by earliest creation, truncated to
// limit after sorting. status narrows to one status; "" means all.
func (d *Dashboard) TopRequests(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error) {
	ok, err := d.events.Exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	if limit <= 0 {
		limit = summaryTopN
	}
	return d.stats.TopRequests(ctx, eventID, status, limit)
}

// DJEventStats returns per-event request/vote totals for every event
// the DJ owns.
func (d *Dashboard) DJEventStats(ctx context.Context, djUserID uint64) ([]repository.DJEventStat, error) {
	return d.stats.StatsByDJ(ctx, djUserID)
}
