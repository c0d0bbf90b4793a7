package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/live-song-requests/internal/model"
)

// EventRepo provides CRUD operations for events. Events are owned by
// exactly one DJ; mutation methods verify ownership and return
// ErrForbidden when the caller is not the owner.
type EventRepo struct{ db *sql.DB }

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = "id, dj_user_id, name, slug, is_active, created_at"

// Create inserts a new event and populates the generated ID and
// creation timestamp on the provided struct. The slug unique key
// converts a duplicate into ErrSlugExists.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	e.Slug = strings.ToLower(strings.TrimSpace(e.Slug))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO events (dj_user_id, name, slug, is_active) VALUES (?,?,?,?)",
		e.DJUserID, e.Name, e.Slug, e.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	// Query back the row to populate the DB-assigned timestamp
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM events WHERE id=?", e.ID).Scan(&e.CreatedAt)
}

// GetByID fetches an event by id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var e model.Event
	err := r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.DJUserID, &e.Name, &e.Slug, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrEventNotFound
	}
	return e, err
}

// GetBySlug fetches an event by its unique slug. Used by audience
// members joining an event from a share link.
func (r *EventRepo) GetBySlug(ctx context.Context, slug string) (model.Event, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	var e model.Event
	err := r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE slug=? LIMIT 1",
		slug).Scan(&e.ID, &e.DJUserID, &e.Name, &e.Slug, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrEventNotFound
	}
	return e, err
}

// Exists reports whether an event with the given id exists. It is
// used to distinguish "event has no data" from "event does not
// exist" in aggregate queries.
func (r *EventRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByDJ returns all events owned by a DJ, newest first.
func (r *EventRepo) ListByDJ(ctx context.Context, djUserID uint64) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE dj_user_id=? ORDER BY created_at DESC, id DESC",
		djUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.DJUserID, &e.Name, &e.Slug, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SetActive toggles the is_active flag. Only the owning DJ may change
// it; a mismatched owner yields ErrForbidden, an absent event
// ErrEventNotFound.
func (r *EventRepo) SetActive(ctx context.Context, eventID, djUserID uint64, active bool) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT dj_user_id FROM events WHERE id=?", eventID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != djUserID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE events SET is_active=? WHERE id=?", active, eventID)
	return err
}

// Delete removes an event owned by the DJ. Requests, votes and
// sessions under the event are removed by the schema's ON DELETE
// CASCADE constraints.
func (r *EventRepo) Delete(ctx context.Context, eventID, djUserID uint64) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT dj_user_id FROM events WHERE id=?", eventID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != djUserID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM events WHERE id=?", eventID)
	return err
}
