package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
)

// SessionStore is the persistence surface SessionTracker needs.
// Upsert must be atomic per (user, event) pair and report whether it
// created a new row.
type SessionStore interface {
	Upsert(ctx context.Context, userID, eventID uint64, clientIP string) (model.Session, bool, error)
	Touch(ctx context.Context, sessionID uint64) error
	IncrementRequestCount(ctx context.Context, sessionID uint64) (int, error)
	CountActive(ctx context.Context, eventID uint64, since time.Time) (int, error)
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// SessionTracker maintains one activity record per (user, event)
// pair. The isNew result of JoinOrRefresh is what the orchestrator
// uses to decide whether to announce a join: refreshing an existing
// session never re-triggers the announcement.
type SessionTracker struct {
	store SessionStore

	// ActiveWindow is how recent a session's last_seen must be to
	// count the user as active. RequestLimit caps song requests per
	// session; 0 disables the cap. StaleTTL is the age past which the
	// reaper deletes rows.
	ActiveWindow time.Duration
	RequestLimit int
	StaleTTL     time.Duration
}

// NewSessionTracker builds a tracker with the given policy knobs.
func NewSessionTracker(store SessionStore, activeWindow time.Duration, requestLimit int, staleTTL time.Duration) *SessionTracker {
	return &SessionTracker{
		store:        store,
		ActiveWindow: activeWindow,
		RequestLimit: requestLimit,
		StaleTTL:     staleTTL,
	}
}

// JoinOrRefresh records activity for (userID, eventID). The first
// call for a pair creates the session and returns isNew=true; every
// later call refreshes last_seen (and client_ip when supplied) and
// returns isNew=false.
func (t *SessionTracker) JoinOrRefresh(ctx context.Context, userID, eventID uint64, clientIP string) (model.Session, bool, error) {
	return t.store.Upsert(ctx, userID, eventID, clientIP)
}

// Touch refreshes last_seen without incrementing the request counter.
func (t *SessionTracker) Touch(ctx context.Context, sessionID uint64) error {
	return t.store.Touch(ctx, sessionID)
}

// IncrementRequestCount bumps the session's request counter and
// enforces the per-session cap. When the new count exceeds the limit
// it returns repository.ErrConflict; the handler maps that to 429.
func (t *SessionTracker) IncrementRequestCount(ctx context.Context, sessionID uint64) (int, error) {
	count, err := t.store.IncrementRequestCount(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if t.RequestLimit > 0 && count > t.RequestLimit {
		return count, repository.ErrConflict
	}
	return count, nil
}

// ActiveUsers counts sessions for the event seen inside the recency
// window. Derived on every call; sessions age out of the window on
// their own, with or without the reaper.
func (t *SessionTracker) ActiveUsers(ctx context.Context, eventID uint64) (int, error) {
	return t.store.CountActive(ctx, eventID, time.Now().UTC().Add(-t.ActiveWindow))
}

// StartReaper runs a background loop deleting sessions idle for
// longer than StaleTTL. Purely housekeeping: the window predicate in
// ActiveUsers stays authoritative either way. Stops when ctx is done.
func (t *SessionTracker) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := t.store.DeleteStale(ctx, time.Now().UTC().Add(-t.StaleTTL))
				if err != nil {
					log.Printf("session-reaper: delete stale failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("session-reaper: removed %d stale sessions", n)
				}
			}
		}
	}()
}
