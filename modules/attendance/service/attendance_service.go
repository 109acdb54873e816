package service

import (
	"context"
	"strings"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/modules/attendance/dto"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	eventService "go-event-roster/modules/event/service"
	"go-event-roster/modules/venue/gateway"

	"github.com/google/uuid"
)

// RosterMarker is notified after every committed transition.
type RosterMarker interface {
	MarkDirty(eventID uuid.UUID)
}

// AttendanceService runs the per-attendee RSVP and role selection flow.
type AttendanceService struct {
	repo      repository.EventRepositoryInterface
	publisher RosterMarker
	venue     gateway.Gateway
	clock     clock.Clock
	timeout   time.Duration
	keys      *keyedMutex
}

type AttendanceServiceInterface interface {
	RecordResponse(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, status entity.RSVPStatus) (*dto.AttendanceResponse, *errors.AppError)
	SelectPrimaryRole(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, roleName string) (*dto.AttendanceResponse, *errors.AppError)
	SelectSubRole(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, subRoleName string) (*dto.AttendanceResponse, *errors.AppError)
	Handle(ctx context.Context, eventID uuid.UUID, req *dto.IntakeRequest) (*dto.AttendanceResponse, *errors.AppError)
}

func NewAttendanceService(repo repository.EventRepositoryInterface, publisher RosterMarker, venue gateway.Gateway, clk clock.Clock) *AttendanceService {
	if clk == nil {
		clk = clock.Real()
	}
	return &AttendanceService{
		repo:      repo,
		publisher: publisher,
		venue:     venue,
		clock:     clk,
		timeout:   constants.ExternalCallTimeout,
		keys:      newKeyedMutex(),
	}
}

// transition is what a committed call changed, captured inside Mutate.
type transition struct {
	before  entity.Attendee
	after   entity.Attendee
	changed bool
	venueID *string
}

// Handle dispatches an intake action to the matching operation.
func (s *AttendanceService) Handle(ctx context.Context, eventID uuid.UUID, req *dto.IntakeRequest) (*dto.AttendanceResponse, *errors.AppError) {
	participantID := strings.TrimSpace(req.ParticipantID)
	if participantID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "participant_id is required", nil)
	}
	creds := entity.CredentialSet(req.Credentials)

	switch req.Action {
	case dto.ActionStatus:
		return s.RecordResponse(ctx, eventID, participantID, creds, entity.RSVPStatus(strings.ToLower(req.Value)))
	case dto.ActionSelectRole:
		return s.SelectPrimaryRole(ctx, eventID, participantID, creds, req.Value)
	case dto.ActionSelectSubRole:
		return s.SelectSubRole(ctx, eventID, participantID, creds, req.Value)
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown action", nil)
	}
}

// RecordResponse sets the RSVP status. Moving to tentative or declined always
// discards the role selection; re-attending with a role already held is a no-op.
func (s *AttendanceService) RecordResponse(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, status entity.RSVPStatus) (*dto.AttendanceResponse, *errors.AppError) {
	if !status.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Status must be attending, tentative or declined", nil)
	}

	return s.apply(ctx, eventID, participantID, credentials, func(e *entity.Event, a *entity.Attendee, existed bool) error {
		if e.IsRestricted() && !credentials.ContainsAny(e.RestrictedRoles) {
			return errors.NewAppError(errors.ErrForbidden, "You do not have access to this event", nil)
		}
		if existed && a.Status == status {
			return repository.ErrNoChange
		}
		a.Status = status
		if status != entity.RSVPAttending {
			a.ClearRole()
		}
		return nil
	})
}

// SelectPrimaryRole picks a top-level role. Picking a different role while one
// is held replaces it and clears the sub-role; picking the same one is a no-op.
func (s *AttendanceService) SelectPrimaryRole(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, roleName string) (*dto.AttendanceResponse, *errors.AppError) {
	return s.apply(ctx, eventID, participantID, credentials, func(e *entity.Event, a *entity.Attendee, existed bool) error {
		if !existed || a.Status != entity.RSVPAttending {
			return errors.NewAppError(errors.ErrNotFound, "Respond as attending before choosing a role", nil)
		}
		role, ok := e.RoleCatalog.Find(roleName)
		if !ok {
			return errors.NewAppError(errors.ErrInvalidRole, "Unknown role", nil)
		}
		if !entity.Satisfies(role.RequiredCredential, credentials) {
			return errors.NewAppError(errors.ErrInvalidRole, "You are not allowed to take this role", nil)
		}
		if a.PrimaryRole != nil && *a.PrimaryRole == role.Name {
			return repository.ErrNoChange
		}

		name := role.Name
		a.PrimaryRole = &name
		a.SubRole = nil
		a.Glyph = role.Glyph
		return nil
	})
}

// SelectSubRole picks a class under the current primary role and confirms the attendee.
func (s *AttendanceService) SelectSubRole(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, subRoleName string) (*dto.AttendanceResponse, *errors.AppError) {
	return s.apply(ctx, eventID, participantID, credentials, func(e *entity.Event, a *entity.Attendee, existed bool) error {
		if !existed || a.Status != entity.RSVPAttending {
			return errors.NewAppError(errors.ErrNotFound, "Respond as attending before choosing a class", nil)
		}
		if a.PrimaryRole == nil {
			return errors.NewAppError(errors.ErrInvalidSubRole, "Choose a role first", nil)
		}
		role, ok := e.RoleCatalog.Find(*a.PrimaryRole)
		if !ok {
			return errors.NewAppError(errors.ErrInvalidSubRole, "Current role is not in the catalog", nil)
		}
		sub, ok := role.FindSubRole(subRoleName)
		if !ok {
			return errors.NewAppError(errors.ErrInvalidSubRole, "Class is not available for this role", nil)
		}
		if !entity.Satisfies(sub.RequiredCredential, credentials) {
			return errors.NewAppError(errors.ErrInvalidSubRole, "You are not allowed to take this class", nil)
		}
		if a.SubRole != nil && *a.SubRole == sub.Name {
			return repository.ErrNoChange
		}

		name := sub.Name
		a.SubRole = &name
		a.Glyph = sub.Glyph
		if a.Glyph == "" {
			a.Glyph = role.Glyph
		}
		return nil
	})
}

type attendeeFn func(e *entity.Event, a *entity.Attendee, existed bool) error

// apply serialises calls per (event, participant), commits fn through the
// store's compare-and-swap and then runs side effects. Side effects never
// undo a committed change.
func (s *AttendanceService) apply(ctx context.Context, eventID uuid.UUID, participantID string, credentials entity.CredentialSet, fn attendeeFn) (*dto.AttendanceResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "participant_id is required", nil)
	}

	unlock := s.keys.Lock(eventID.String() + "/" + participantID)
	defer unlock()

	var t transition
	now := s.clock.Now().UTC()

	event, err := s.repo.Mutate(ctx, eventID, func(e *entity.Event) error {
		t = transition{}
		if e.Archived {
			return errors.NewAppError(errors.ErrInvalidInput, "Event is archived", nil)
		}

		idx, existed := e.Attendees.Find(participantID)
		var current entity.Attendee
		if existed {
			current = e.Attendees[idx]
		} else {
			current = entity.Attendee{ParticipantID: participantID, Status: entity.RSVPUnset}
		}
		t.before = current

		next := current
		if err := fn(e, &next, existed); err != nil {
			return err
		}
		next.RespondedAt = now
		if existed {
			e.Attendees[idx] = next
		} else {
			e.Attendees = append(e.Attendees, next)
		}
		t.after = next
		t.changed = true
		t.venueID = e.VenueID
		return nil
	})
	if err != nil {
		return nil, eventService.ToAppError(err, "Failed to record response")
	}

	if !t.changed {
		// no-op: report the stored attendee
		idx, ok := event.Attendees.Find(participantID)
		if ok {
			t.after = event.Attendees[idx]
		}
		t.before = t.after
	}

	if t.changed {
		logger.Info("AttendanceService:Transition",
			"event_id", eventID.String(),
			"participant_id", participantID,
			"from", t.before.State(event.RoleCatalog),
			"to", t.after.State(event.RoleCatalog),
		)
		s.afterCommit(ctx, eventID, t)
	}

	return toResponse(eventID, event, t.after, credentials, t.changed), nil
}

func (s *AttendanceService) afterCommit(ctx context.Context, eventID uuid.UUID, t transition) {
	if s.publisher != nil {
		s.publisher.MarkDirty(eventID)
	}
	if s.venue == nil || t.venueID == nil {
		return
	}

	wasAttending := t.before.Status == entity.RSVPAttending
	isAttending := t.after.Status == entity.RSVPAttending
	if wasAttending == isAttending {
		return
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var err error
	if isAttending {
		err = s.venue.AddMember(callCtx, *t.venueID, t.after.ParticipantID)
	} else {
		err = s.venue.RemoveMember(callCtx, *t.venueID, t.after.ParticipantID)
	}
	if err != nil {
		logger.Warn("AttendanceService:afterCommit:VenueMembership",
			"event_id", eventID.String(),
			"venue_id", *t.venueID,
			"participant_id", t.after.ParticipantID,
			"attending", isAttending,
			"error", err,
		)
	}
}

func toResponse(eventID uuid.UUID, event *entity.Event, a entity.Attendee, credentials entity.CredentialSet, changed bool) *dto.AttendanceResponse {
	out := &dto.AttendanceResponse{
		EventID:       eventID.String(),
		ParticipantID: a.ParticipantID,
		Status:        a.Status,
		State:         a.State(event.RoleCatalog),
		PrimaryRole:   a.PrimaryRole,
		SubRole:       a.SubRole,
		Glyph:         a.Glyph,
		Changed:       changed,
	}

	switch out.State {
	case entity.StateAwaitingRole:
		for _, role := range event.RoleCatalog {
			if entity.Satisfies(role.RequiredCredential, credentials) {
				out.Options = append(out.Options, dto.Option{Name: role.Name, Glyph: role.Glyph})
			}
		}
	case entity.StateAwaitingSubRole:
		if role, ok := event.RoleCatalog.Find(*a.PrimaryRole); ok {
			for _, sub := range role.SubRoles {
				if entity.Satisfies(sub.RequiredCredential, credentials) {
					out.Options = append(out.Options, dto.Option{Name: sub.Name, Glyph: sub.Glyph})
				}
			}
		}
	}
	return out
}
