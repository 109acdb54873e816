package service

import (
	"context"
	"strings"
	"time"

	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/core/params"
	"go-event-roster/modules/event/catalog"
	"go-event-roster/modules/event/dto"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/venue/view"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// Lifecycle receives timer (re)computation requests whenever an event's
// schedule may have changed.
type Lifecycle interface {
	Schedule(ctx context.Context, event *entity.Event)
	Cancel(ctx context.Context, eventID uuid.UUID)
}

// LockClearer drops edit locks of deleted events.
type LockClearer interface {
	Clear(ctx context.Context, eventID uuid.UUID) error
}

type EventService struct {
	repo            repository.EventRepositoryInterface
	lifecycle       Lifecycle
	locks           LockClearer
	defaultCatalog  entity.RoleCatalog
	defaultTimezone string
	now             func() time.Time
}

type EventServiceInterface interface {
	CreateEvent(ctx context.Context, actor params.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError)
	ListEvents(ctx context.Context, actor params.Actor, query dto.ListEventsQuery) (*dto.PaginatedEventResponse, *errors.AppError)
	UpdateEvent(ctx context.Context, actor params.Actor, id uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, actor params.Actor, id uuid.UUID) *errors.AppError
	Roster(ctx context.Context, id uuid.UUID) (*view.RosterView, *errors.AppError)
	Roles(ctx context.Context, id uuid.UUID) (entity.RoleCatalog, *errors.AppError)
	CatalogRoles() entity.RoleCatalog
	ExportICS(ctx context.Context, id uuid.UUID) (string, *errors.AppError)
}

type Options struct {
	Lifecycle       Lifecycle
	Locks           LockClearer
	DefaultCatalog  entity.RoleCatalog
	DefaultTimezone string
}

func NewEventService(repo repository.EventRepositoryInterface, opts Options) *EventService {
	roles := opts.DefaultCatalog
	if len(roles) == 0 {
		roles = catalog.Default()
	}
	tz := opts.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	return &EventService{
		repo:            repo,
		lifecycle:       opts.Lifecycle,
		locks:           opts.Locks,
		defaultCatalog:  roles,
		defaultTimezone: tz,
		now:             time.Now,
	}
}

// SetLifecycle wires the scheduler after construction; the scheduler itself
// needs the event store first.
func (s *EventService) SetLifecycle(l Lifecycle) {
	s.lifecycle = l
}

func validateRecurrence(rule string) *errors.AppError {
	if rule == "" {
		return nil
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "Invalid recurrence rule", err)
	}
	return nil
}

func validateTimezone(tz string) *errors.AppError {
	if _, err := time.LoadLocation(tz); err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "Unknown timezone", err)
	}
	return nil
}

func cleanCredentials(in []string) entity.CredentialSet {
	out := make(entity.CredentialSet, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c != "" && !out.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *EventService) CreateEvent(ctx context.Context, actor params.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
	}
	if !req.StartAt.Before(req.EndAt) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Start must be before end", entity.ErrInvalidWindow)
	}
	if req.VenueLeadMinutes < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Venue lead time cannot be negative", nil)
	}
	tz := req.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	if appErr := validateTimezone(tz); appErr != nil {
		return nil, appErr
	}
	if appErr := validateRecurrence(req.Recurrence); appErr != nil {
		return nil, appErr
	}

	roles := req.RoleCatalog
	if len(roles) == 0 {
		roles = s.defaultCatalog
	}
	if err := catalog.Validate(roles); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid role catalog", err)
	}

	event := &entity.Event{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Timezone:         tz,
		StartAt:          req.StartAt.UTC(),
		EndAt:            req.EndAt.UTC(),
		VenueLeadSeconds: int64(req.VenueLeadMinutes) * 60,
		RestrictedRoles:  cleanCredentials(req.RestrictedRoles),
		RoleCatalog:      roles.Clone(),
		Attendees:        entity.Attendees{},
		Squads:           entity.Squads{},
		CreatorID:        actor.ID,
	}
	if req.Recurrence != "" {
		rule := req.Recurrence
		event.Recurrence = &rule
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, ToAppError(err, "Failed to create event")
	}
	logger.Info("EventService:CreateEvent", "event_id", event.ID.String(), "creator", actor.ID)

	if s.lifecycle != nil {
		s.lifecycle.Schedule(ctx, event)
	}
	return dto.ToEventResponse(event), nil
}

func (s *EventService) load(ctx context.Context, id uuid.UUID) (*entity.Event, *errors.AppError) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ToAppError(err, "Failed to get event")
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, appErr := s.load(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	return dto.ToEventResponse(event), nil
}

func (s *EventService) ListEvents(ctx context.Context, actor params.Actor, query dto.ListEventsQuery) (*dto.PaginatedEventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	filter := repository.ListFilter{
		IncludeArchived: query.IncludeArchived,
		Limit:           query.PageSize,
		Offset:          (query.Page - 1) * query.PageSize,
	}
	if query.Mine {
		filter.CreatorID = actor.ID
	}
	if query.Upcoming {
		now := s.now()
		filter.From = &now
	}

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, ToAppError(err, "Failed to list events")
	}
	return &dto.PaginatedEventResponse{
		Items:      dto.ToEventResponses(page.Items),
		TotalItems: page.TotalItems,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

// UpdateEvent edits schedule and descriptive fields. The role catalog is
// fixed at creation and archived events are read-only.
func (s *EventService) UpdateEvent(ctx context.Context, actor params.Actor, id uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if req.Timezone != nil {
		if appErr := validateTimezone(*req.Timezone); appErr != nil {
			return nil, appErr
		}
	}
	if req.Recurrence != nil {
		if appErr := validateRecurrence(*req.Recurrence); appErr != nil {
			return nil, appErr
		}
	}
	if req.VenueLeadMinutes != nil && *req.VenueLeadMinutes < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Venue lead time cannot be negative", nil)
	}

	updated, err := s.repo.Mutate(ctx, id, func(e *entity.Event) error {
		if !actor.CanManage(e.CreatorID) {
			return errors.NewAppError(errors.ErrForbidden, "Only the creator or a manager can edit this event", nil)
		}
		if e.Archived {
			return errors.NewAppError(errors.ErrInvalidInput, "Archived events are read-only", nil)
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
			}
			e.Title = title
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.Timezone != nil {
			e.Timezone = *req.Timezone
		}
		if req.StartAt != nil {
			e.StartAt = req.StartAt.UTC()
		}
		if req.EndAt != nil {
			e.EndAt = req.EndAt.UTC()
		}
		if req.VenueLeadMinutes != nil {
			e.VenueLeadSeconds = int64(*req.VenueLeadMinutes) * 60
		}
		if req.RestrictedRoles != nil {
			e.RestrictedRoles = cleanCredentials(*req.RestrictedRoles)
		}
		if req.Recurrence != nil {
			if *req.Recurrence == "" {
				e.Recurrence = nil
			} else {
				rule := *req.Recurrence
				e.Recurrence = &rule
			}
		}
		if !e.StartAt.Before(e.EndAt) {
			return errors.NewAppError(errors.ErrInvalidInput, "Start must be before end", entity.ErrInvalidWindow)
		}
		return nil
	})
	if err != nil {
		return nil, ToAppError(err, "Failed to update event")
	}

	if s.lifecycle != nil {
		s.lifecycle.Schedule(ctx, updated)
	}
	return dto.ToEventResponse(updated), nil
}

// DeleteEvent removes the event with its attendees and squads, cancels its
// timers and drops any edit lock.
func (s *EventService) DeleteEvent(ctx context.Context, actor params.Actor, id uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, appErr := s.load(ctx, id)
	if appErr != nil {
		return appErr
	}
	if !actor.CanManage(event.CreatorID) {
		return errors.NewAppError(errors.ErrForbidden, "Only the creator or a manager can delete this event", nil)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return ToAppError(err, "Failed to delete event")
	}
	if !deleted {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	if s.lifecycle != nil {
		s.lifecycle.Cancel(ctx, id)
	}
	if s.locks != nil {
		if err := s.locks.Clear(ctx, id); err != nil {
			logger.Warn("EventService:DeleteEvent:ClearLock", "event_id", id.String(), "error", err)
		}
	}
	logger.Info("EventService:DeleteEvent", "event_id", id.String(), "actor", actor.ID)
	return nil
}

func (s *EventService) Roster(ctx context.Context, id uuid.UUID) (*view.RosterView, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, appErr := s.load(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	roster := view.Build(event, true)
	return &roster, nil
}

func (s *EventService) Roles(ctx context.Context, id uuid.UUID) (entity.RoleCatalog, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, appErr := s.load(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	return event.RoleCatalog, nil
}

// CatalogRoles returns the catalog new events start from.
func (s *EventService) CatalogRoles() entity.RoleCatalog {
	return s.defaultCatalog.Clone()
}
