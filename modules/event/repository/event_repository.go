package repository

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"time"

	"go-event-roster/core/database"
	"go-event-roster/core/logger"
	"go-event-roster/modules/event/entity"

	"github.com/google/uuid"
)

var (
	// ErrVersionConflict means another writer committed between read and write.
	ErrVersionConflict = stdErrors.New("event was modified concurrently")
	ErrEventNotFound   = stdErrors.New("event not found")
	// ErrNoChange lets a Mutate callback skip the write.
	ErrNoChange = stdErrors.New("no change")
)

const eventColumns = `id, title, description, timezone, start_at, end_at, venue_lead_seconds,
	restricted_roles, role_catalog, attendees, squads, venue_id, venue_opened_at,
	roster_message_id, recurrence, series_parent_id, creator_id, archived, version,
	created_at, updated_at`

// EventRepository persists events with their nested attendees, catalog and squads.
type EventRepository struct {
	DB  database.IDatabase
	now func() time.Time
}

func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{DB: db, now: time.Now}
}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	CreatorID       string
	IncludeArchived bool
	From            *time.Time
	Limit           int
	Offset          int
}

type EventRepositoryInterface interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	List(ctx context.Context, filter ListFilter) (*entity.PaginatedEvents, error)
	ListActive(ctx context.Context) ([]entity.Event, error)
	ListAll(ctx context.Context) ([]entity.Event, error)
	ListRecurringWithoutSuccessor(ctx context.Context) ([]entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(*entity.Event) error) (*entity.Event, error)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r *EventRepository) Create(ctx context.Context, event *entity.Event) error {
	now := r.now().UTC()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Version = 1
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.DB.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Timezone,
		event.StartAt.UTC(), event.EndAt.UTC(), event.VenueLeadSeconds,
		event.RestrictedRoles, event.RoleCatalog, event.Attendees, event.Squads,
		event.VenueID, utcPtr(event.VenueOpenedAt), event.RosterMessageID,
		event.Recurrence, event.SeriesParentID, event.CreatorID, event.Archived,
		event.Version, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:Create", err)
		return err
	}
	return nil
}

// GetByID returns nil, nil when the event does not exist.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, id)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", err)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context, filter ListFilter) (*entity.PaginatedEvents, error) {
	where := ` WHERE 1 = 1`
	args := make([]any, 0, 4)
	if !filter.IncludeArchived {
		where += ` AND archived = ?`
		args = append(args, false)
	}
	if filter.CreatorID != "" {
		where += ` AND creator_id = ?`
		args = append(args, filter.CreatorID)
	}
	if filter.From != nil {
		where += ` AND end_at >= ?`
		args = append(args, filter.From.UTC())
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+where, args...); err != nil {
		logger.Error("EventRepository:List:Count", err)
		return nil, err
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY start_at ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	events := make([]entity.Event, 0)
	if err := r.DB.SelectContext(ctx, &events, query, args...); err != nil {
		logger.Error("EventRepository:List", err)
		return nil, err
	}
	return &entity.PaginatedEvents{Items: events, TotalItems: total}, nil
}

// ListActive returns every event that has not been archived, oldest start first.
func (r *EventRepository) ListActive(ctx context.Context) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE archived = ? ORDER BY start_at ASC`

	events := make([]entity.Event, 0)
	if err := r.DB.SelectContext(ctx, &events, query, false); err != nil {
		logger.Error("EventRepository:ListActive", err)
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) ListAll(ctx context.Context) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_at ASC`

	events := make([]entity.Event, 0)
	if err := r.DB.SelectContext(ctx, &events, query); err != nil {
		logger.Error("EventRepository:ListAll", err)
		return nil, err
	}
	return events, nil
}

// ListRecurringWithoutSuccessor returns archived recurring events whose next
// occurrence has not been created yet.
func (r *EventRepository) ListRecurringWithoutSuccessor(ctx context.Context) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + ` FROM events e
		WHERE e.archived = ?
		  AND e.recurrence IS NOT NULL AND e.recurrence <> ''
		  AND NOT EXISTS (SELECT 1 FROM events c WHERE c.series_parent_id = e.id)
		ORDER BY e.start_at ASC
	`
	events := make([]entity.Event, 0)
	if err := r.DB.SelectContext(ctx, &events, query, true); err != nil {
		logger.Error("EventRepository:ListRecurringWithoutSuccessor", err)
		return nil, err
	}
	return events, nil
}

// Update writes event if its version still matches the stored one, then
// bumps event.Version. A stale version yields ErrVersionConflict.
func (r *EventRepository) Update(ctx context.Context, event *entity.Event) error {
	now := r.now().UTC()
	query := `
		UPDATE events SET
			title = ?, description = ?, timezone = ?, start_at = ?, end_at = ?,
			venue_lead_seconds = ?, restricted_roles = ?, role_catalog = ?,
			attendees = ?, squads = ?, venue_id = ?, venue_opened_at = ?,
			roster_message_id = ?, recurrence = ?, series_parent_id = ?,
			archived = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	res, err := r.DB.ExecResultContext(ctx, query,
		event.Title, event.Description, event.Timezone, event.StartAt.UTC(), event.EndAt.UTC(),
		event.VenueLeadSeconds, event.RestrictedRoles, event.RoleCatalog,
		event.Attendees, event.Squads, event.VenueID, utcPtr(event.VenueOpenedAt),
		event.RosterMessageID, event.Recurrence, event.SeriesParentID,
		event.Archived, now, event.ID, event.Version)
	if err != nil {
		logger.Error("EventRepository:Update", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var count int
		if err := r.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM events WHERE id = ?`, event.ID); err != nil {
			return err
		}
		if count == 0 {
			return ErrEventNotFound
		}
		return ErrVersionConflict
	}
	event.Version++
	event.UpdatedAt = now
	return nil
}

// Delete removes the event row; attendees and squads go with it.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.DB.ExecResultContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		logger.Error("EventRepository:Delete", err)
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Mutate reads the event, applies fn to a copy and writes it back with
// compare-and-swap. A lost race is retried once against a fresh read; a
// second loss returns ErrVersionConflict. fn may run twice and must derive
// its changes only from the event it is given. Returning ErrNoChange from
// fn skips the write and returns the current event.
func (r *EventRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*entity.Event) error) (*entity.Event, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrEventNotFound
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if stdErrors.Is(err, ErrNoChange) {
				return current, nil
			}
			return nil, err
		}
		if err := next.Validate(); err != nil {
			return nil, fmt.Errorf("mutation breaks event invariants: %w", err)
		}

		err = r.Update(ctx, next)
		if err == nil {
			return next, nil
		}
		if !stdErrors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		logger.Warn("EventRepository:Mutate:Conflict", "event_id", id.String(), "attempt", attempt+1)
	}
	return nil, lastErr
}
