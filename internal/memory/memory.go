// Package memory implements an in-memory store for development and
// testing. It mirrors the semantics of the MySQL repositories,
// including the unique-key behavior for votes and sessions, behind
// the same interfaces the services consume, so unit tests exercise
// the real service logic without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/live-song-requests/internal/model"
	"github.com/iliyamo/live-song-requests/internal/repository"
	"github.com/iliyamo/live-song-requests/internal/service"
)

// Ensure interfaces are met.
var (
	_ service.VoteStore         = (*Store)(nil)
	_ service.VoteRequestStore  = (*Store)(nil)
	_ service.VoteUserStore     = (*Store)(nil)
	_ service.SessionStore      = (*Store)(nil)
	_ service.SessionCountStore = (*Store)(nil)
	_ service.StatsStore        = (*Store)(nil)
	_ service.EventExistsStore  = EventView{}
)

// Store holds everything in maps guarded by one mutex. The mutex is
// what stands in for the database's serialization of concurrent
// writers: a vote insert checks and records the (user, request) pair
// under the same critical section.
type Store struct {
	mu       sync.Mutex
	users    map[uint64]model.User
	events   map[uint64]model.Event
	requests map[uint64]model.Request
	votes    map[voteKey]model.Vote
	sessions map[sessionKey]*model.Session
	byID     map[uint64]*model.Session

	userSeq    uint64
	eventSeq   uint64
	requestSeq uint64
	voteSeq    uint64
	sessionSeq uint64
}

type voteKey struct{ userID, requestID uint64 }

type sessionKey struct{ userID, eventID uint64 }

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[uint64]model.User),
		events:   make(map[uint64]model.Event),
		requests: make(map[uint64]model.Request),
		votes:    make(map[voteKey]model.Vote),
		sessions: make(map[sessionKey]*model.Session),
		byID:     make(map[uint64]*model.Session),
	}
}

// --- seeding helpers used by tests ---

// AddUser inserts a user and returns it with an assigned ID.
func (s *Store) AddUser(username, role string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeq++
	u := model.User{ID: s.userSeq, Username: username, Role: role, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	return u
}

// AddEvent inserts an event and returns it with an assigned ID.
func (s *Store) AddEvent(djUserID uint64, name, slug string) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventSeq++
	e := model.Event{ID: s.eventSeq, DJUserID: djUserID, Name: name, Slug: slug, IsActive: true, CreatedAt: time.Now().UTC()}
	s.events[e.ID] = e
	return e
}

// AddRequest inserts a pending request with the given creation time
// and returns it with an assigned ID.
func (s *Store) AddRequest(eventID, userID uint64, title string, createdAt time.Time) model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestSeq++
	r := model.Request{
		ID:        s.requestSeq,
		EventID:   eventID,
		UserID:    userID,
		Title:     title,
		Status:    model.StatusPending,
		CreatedAt: createdAt,
	}
	s.requests[r.ID] = r
	return r
}

// SetRequestStatus changes a request's status directly. Test helper.
func (s *Store) SetRequestStatus(requestID uint64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[requestID]; ok {
		r.Status = status
		s.requests[requestID] = r
	}
}

// --- service.VoteUserStore ---

// Exists reports whether a user with the given id exists.
func (s *Store) Exists(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

// --- service.VoteRequestStore ---

// GetByID returns a request with its current vote count.
func (s *Store) GetByID(ctx context.Context, id uint64) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return model.Request{}, repository.ErrRequestNotFound
	}
	r.VoteCount = s.countVotesLocked(id)
	return r, nil
}

func (s *Store) countVotesLocked(requestID uint64) int {
	n := 0
	for k := range s.votes {
		if k.requestID == requestID {
			n++
		}
	}
	return n
}

// --- service.VoteStore ---

// Insert records a vote, enforcing the (user, request) unique pair
// inside the critical section, and returns the post-insert count.
func (s *Store) Insert(ctx context.Context, userID, requestID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[requestID]; !ok {
		return 0, repository.ErrRequestNotFound
	}
	key := voteKey{userID, requestID}
	if _, ok := s.votes[key]; ok {
		return 0, repository.ErrDuplicateVote
	}
	s.voteSeq++
	s.votes[key] = model.Vote{ID: s.voteSeq, UserID: userID, RequestID: requestID, CreatedAt: time.Now().UTC()}
	return s.countVotesLocked(requestID), nil
}

// HasVoted reports whether the (user, request) vote exists.
func (s *Store) HasVoted(ctx context.Context, userID, requestID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[voteKey{userID, requestID}]
	return ok, nil
}

// CountByRequest returns the current vote count for a request.
func (s *Store) CountByRequest(ctx context.Context, requestID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countVotesLocked(requestID), nil
}

// Delete removes a vote and returns the remaining count, or
// repository.ErrVoteNotFound when no such vote exists.
func (s *Store) Delete(ctx context.Context, userID, requestID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{userID, requestID}
	if _, ok := s.votes[key]; !ok {
		return 0, repository.ErrVoteNotFound
	}
	delete(s.votes, key)
	return s.countVotesLocked(requestID), nil
}

// --- service.SessionStore / service.SessionCountStore ---

// Upsert creates or refreshes the (userID, eventID) session and
// reports whether a new row was created.
func (s *Store) Upsert(ctx context.Context, userID, eventID uint64, clientIP string) (model.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{userID, eventID}
	now := time.Now().UTC()
	if sess, ok := s.sessions[key]; ok {
		sess.LastSeen = now
		if clientIP != "" {
			sess.ClientIP = clientIP
		}
		return *sess, false, nil
	}
	s.sessionSeq++
	sess := &model.Session{
		ID:        s.sessionSeq,
		UserID:    userID,
		EventID:   eventID,
		ClientIP:  clientIP,
		LastSeen:  now,
		CreatedAt: now,
	}
	s.sessions[key] = sess
	s.byID[sess.ID] = sess
	return *sess, true, nil
}

// Touch refreshes last_seen without incrementing the request counter.
func (s *Store) Touch(ctx context.Context, sessionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	sess.LastSeen = time.Now().UTC()
	return nil
}

// IncrementRequestCount bumps the counter and refreshes last_seen.
func (s *Store) IncrementRequestCount(ctx context.Context, sessionID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[sessionID]
	if !ok {
		return 0, repository.ErrSessionNotFound
	}
	sess.RequestCount++
	sess.LastSeen = time.Now().UTC()
	return sess.RequestCount, nil
}

// SetLastSeen backdates a session's activity. Test helper.
func (s *Store) SetLastSeen(sessionID uint64, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[sessionID]; ok {
		sess.LastSeen = t
	}
}

// CountActive counts sessions for the event seen after the cutoff.
func (s *Store) CountActive(ctx context.Context, eventID uint64, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.EventID == eventID && sess.LastSeen.After(since) {
			n++
		}
	}
	return n, nil
}

// DeleteStale removes sessions idle since before the cutoff.
func (s *Store) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, sess := range s.sessions {
		if sess.LastSeen.Before(olderThan) {
			delete(s.sessions, key)
			delete(s.byID, sess.ID)
			removed++
		}
	}
	return removed, nil
}

// --- service.EventExistsStore ---

// EventExists reports whether an event with the given id exists.
// Named differently from Exists (users) because both live on the one
// Store; an adapter below maps it onto the interface.
func (s *Store) EventExists(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[id]
	return ok, nil
}

// Events returns an adapter satisfying service.EventExistsStore.
func (s *Store) Events() EventView { return EventView{s} }

// EventView narrows Store to the event-existence check.
type EventView struct{ s *Store }

// Exists implements service.EventExistsStore.
func (v EventView) Exists(ctx context.Context, id uint64) (bool, error) {
	return v.s.EventExists(ctx, id)
}

// --- service.StatsStore ---

// CountRequestsByStatus returns per-status request totals.
func (s *Store) CountRequestsByStatus(ctx context.Context, eventID uint64) (repository.StatusCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c repository.StatusCounts
	for _, r := range s.requests {
		if r.EventID != eventID {
			continue
		}
		switch r.Status {
		case model.StatusPending:
			c.Pending++
		case model.StatusApproved:
			c.Approved++
		case model.StatusRejected:
			c.Rejected++
		}
		c.Total++
	}
	return c, nil
}

// CountVotes returns the total votes across the event's requests.
func (s *Store) CountVotes(ctx context.Context, eventID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.votes {
		if r, ok := s.requests[k.requestID]; ok && r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *Store) requestsForEventLocked(eventID uint64, status string) []model.Request {
	out := make([]model.Request, 0)
	for _, r := range s.requests {
		if r.EventID != eventID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		r.VoteCount = s.countVotesLocked(r.ID)
		out = append(out, r)
	}
	return out
}

// TopRequests ranks by vote count descending with creation time then
// id as tie-breakers, truncating to limit after the sort.
func (s *Store) TopRequests(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error) {
	s.mu.Lock()
	out := s.requestsForEventLocked(eventID, status)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentByStatus returns the newest requests in one status.
func (s *Store) RecentByStatus(ctx context.Context, eventID uint64, status string, limit int) ([]model.Request, error) {
	s.mu.Lock()
	out := s.requestsForEventLocked(eventID, status)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StatsByDJ returns per-event totals for every event the DJ owns,
// newest first.
func (s *Store) StatsByDJ(ctx context.Context, djUserID uint64) ([]repository.DJEventStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]model.Event, 0)
	for _, e := range s.events {
		if e.DJUserID == djUserID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	stats := make([]repository.DJEventStat, 0, len(events))
	for _, e := range events {
		st := repository.DJEventStat{EventID: e.ID, Name: e.Name, Slug: e.Slug, IsActive: e.IsActive}
		for _, r := range s.requests {
			if r.EventID == e.ID {
				st.TotalRequests++
				st.TotalVotes += s.countVotesLocked(r.ID)
			}
		}
		stats = append(stats, st)
	}
	return stats, nil
}
