package service

import (
	"context"
	"strings"
	"time"

	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/core/params"
	"go-event-roster/core/utils"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	eventService "go-event-roster/modules/event/service"
	"go-event-roster/modules/squad/allocator"
	"go-event-roster/modules/squad/dto"
	"go-event-roster/modules/squad/policy"
	"go-event-roster/modules/venue/gateway"
	"go-event-roster/modules/venue/view"

	"github.com/google/uuid"
)

const maxSquads = 100

// LockGuard checks that the caller holds the event's edit lock.
type LockGuard interface {
	Require(ctx context.Context, eventID uuid.UUID, holderID string) *errors.AppError
}

// SquadService edits the squad layout of an event. Every write requires the
// caller to hold the event's edit lock.
type SquadService struct {
	repo    repository.EventRepositoryInterface
	locks   LockGuard
	venue   gateway.Gateway
	policy  *policy.Policy
	newID   func() string
	timeout time.Duration
}

type SquadServiceInterface interface {
	Build(ctx context.Context, actor params.Actor, eventID uuid.UUID, req *dto.BuildSquadsRequest) (*dto.SquadsResponse, *errors.AppError)
	Refresh(ctx context.Context, actor params.Actor, eventID uuid.UUID, req *dto.RefreshSquadsRequest) (*dto.SquadsResponse, *errors.AppError)
	SetMemberRole(ctx context.Context, actor params.Actor, eventID uuid.UUID, participantID string, req *dto.SetMemberRoleRequest) (*dto.SquadsResponse, *errors.AppError)
	MoveMember(ctx context.Context, actor params.Actor, eventID uuid.UUID, participantID string, req *dto.MoveMemberRequest) (*dto.SquadsResponse, *errors.AppError)
	List(ctx context.Context, eventID uuid.UUID) (*dto.SquadsResponse, *errors.AppError)
	Publish(ctx context.Context, actor params.Actor, eventID uuid.UUID) (*dto.PublishResponse, *errors.AppError)
}

func NewSquadService(repo repository.EventRepositoryInterface, locks LockGuard, venue gateway.Gateway, pol *policy.Policy) *SquadService {
	if pol == nil {
		pol = policy.Default()
	}
	return &SquadService{
		repo:    repo,
		locks:   locks,
		venue:   venue,
		policy:  pol,
		newID:   utils.GenerateID,
		timeout: constants.ExternalCallTimeout,
	}
}

func validateQuotas(quotas []allocator.Quota) *errors.AppError {
	total := 0
	for _, q := range quotas {
		if strings.TrimSpace(q.Kind) == "" {
			return errors.NewAppError(errors.ErrInvalidInput, "Squad kind is required", nil)
		}
		if q.Count < 0 || q.Size < 0 {
			return errors.NewAppError(errors.ErrInvalidInput, "Squad count and size must not be negative", nil)
		}
		total += q.Count
	}
	if total > maxSquads {
		return errors.NewAppError(errors.ErrInvalidInput, "Too many squads requested", nil)
	}
	return nil
}

// edit runs fn on the event under the caller's edit lock. The lock is checked
// again inside the mutation, after the event is loaded and right before the
// write, so a lock that lapsed or changed hands meanwhile aborts the edit.
func (s *SquadService) edit(ctx context.Context, actor params.Actor, eventID uuid.UUID, fn func(e *entity.Event) error) (*dto.SquadsResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if appErr := s.locks.Require(ctx, eventID, actor.ID); appErr != nil {
		return nil, appErr
	}

	event, err := s.repo.Mutate(ctx, eventID, func(e *entity.Event) error {
		if e.Archived {
			return errors.NewAppError(errors.ErrInvalidInput, "Event is archived", nil)
		}
		if err := fn(e); err != nil {
			return err
		}
		if appErr := s.locks.Require(ctx, eventID, actor.ID); appErr != nil {
			return appErr
		}
		return nil
	})
	if err != nil {
		return nil, eventService.ToAppError(err, "Failed to update squads")
	}
	return dto.ToSquadsResponse(event), nil
}

func (s *SquadService) allocate(e *entity.Event, quotas []allocator.Quota, prior entity.Squads) entity.Squads {
	return allocator.Allocate(allocator.Input{
		Attendees: e.Attendees,
		Catalog:   e.RoleCatalog,
		Quotas:    quotas,
		Prior:     prior,
		Policy:    s.policy,
		NewID:     s.newID,
	})
}

// Build replaces the layout with a fresh allocation.
func (s *SquadService) Build(ctx context.Context, actor params.Actor, eventID uuid.UUID, req *dto.BuildSquadsRequest) (*dto.SquadsResponse, *errors.AppError) {
	if appErr := validateQuotas(req.Quotas); appErr != nil {
		return nil, appErr
	}
	res, appErr := s.edit(ctx, actor, eventID, func(e *entity.Event) error {
		e.Squads = s.allocate(e, req.Quotas, nil)
		return nil
	})
	if appErr == nil {
		logger.Info("SquadService:Build", "event_id", eventID.String(), "squads", len(res.Squads))
	}
	return res, appErr
}

// Refresh re-runs allocation against the given layout, keeping squad
// identity and manual moves.
func (s *SquadService) Refresh(ctx context.Context, actor params.Actor, eventID uuid.UUID, req *dto.RefreshSquadsRequest) (*dto.SquadsResponse, *errors.AppError) {
	if appErr := validateQuotas(req.Quotas); appErr != nil {
		return nil, appErr
	}
	return s.edit(ctx, actor, eventID, func(e *entity.Event) error {
		prior := req.Squads
		if len(prior) == 0 {
			prior = e.Squads
		}
		quotas := req.Quotas
		if len(quotas) == 0 {
			quotas = allocator.QuotasFrom(prior)
		}
		e.Squads = s.allocate(e, quotas, prior.Clone())
		return nil
	})
}

// SetMemberRole overrides the role a member plays in its squad.
func (s *SquadService) SetMemberRole(ctx context.Context, actor params.Actor, eventID uuid.UUID, participantID string, req *dto.SetMemberRoleRequest) (*dto.SquadsResponse, *errors.AppError) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Role is required", nil)
	}
	return s.edit(ctx, actor, eventID, func(e *entity.Event) error {
		if !catalogHas(e.RoleCatalog, role) {
			return errors.NewAppError(errors.ErrInvalidRole, "Unknown role", nil)
		}
		si, mi, ok := e.Squads.FindMember(participantID)
		if !ok {
			return errors.NewAppError(errors.ErrNotFound, "Member is not in any squad", nil)
		}
		if e.Squads[si].Members[mi].AssignedRole == role {
			return repository.ErrNoChange
		}
		e.Squads[si].Members[mi].AssignedRole = role
		return nil
	})
}

// MoveMember puts a member into another squad and pins it there.
func (s *SquadService) MoveMember(ctx context.Context, actor params.Actor, eventID uuid.UUID, participantID string, req *dto.MoveMemberRequest) (*dto.SquadsResponse, *errors.AppError) {
	return s.edit(ctx, actor, eventID, func(e *entity.Event) error {
		target, ok := e.Squads.FindByID(req.SquadID)
		if !ok {
			return errors.NewAppError(errors.ErrNotFound, "Squad not found", nil)
		}
		si, mi, ok := e.Squads.FindMember(participantID)
		if !ok {
			return errors.NewAppError(errors.ErrNotFound, "Member is not in any squad", nil)
		}

		member := e.Squads[si].Members[mi]
		member.Pinned = true
		e.Squads[si].Members = append(e.Squads[si].Members[:mi], e.Squads[si].Members[mi+1:]...)
		e.Squads[target].Members = append(e.Squads[target].Members, member)
		if e.Squads[target].Reserve {
			e.Squads[target].Size = len(e.Squads[target].Members)
		}
		if e.Squads[si].Reserve {
			e.Squads[si].Size = len(e.Squads[si].Members)
		}
		return nil
	})
}

func (s *SquadService) List(ctx context.Context, eventID uuid.UUID) (*dto.SquadsResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		logger.Error("SquadService:List", err)
		return nil, eventService.ToAppError(err, "Failed to load squads")
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return dto.ToSquadsResponse(event), nil
}

// Publish posts the squad sheet into the open venue as a new message.
func (s *SquadService) Publish(ctx context.Context, actor params.Actor, eventID uuid.UUID) (*dto.PublishResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if appErr := s.locks.Require(ctx, eventID, actor.ID); appErr != nil {
		return nil, appErr
	}
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventService.ToAppError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if !event.VenueOpen() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Venue is not open", nil)
	}
	if len(event.Squads) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "No squads to publish", nil)
	}
	if appErr := s.locks.Require(ctx, eventID, actor.ID); appErr != nil {
		return nil, appErr
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	messageID, err := s.venue.PostRosterSnapshot(callCtx, *event.VenueID, view.Build(event, true))
	if err != nil {
		logger.Warn("SquadService:Publish", "event_id", eventID.String(), "error", err)
		return nil, errors.NewAppError(errors.ErrTransient, "Failed to publish squads", err)
	}
	return &dto.PublishResponse{EventID: eventID.String(), VenueID: *event.VenueID, MessageID: messageID}, nil
}

func catalogHas(catalog entity.RoleCatalog, name string) bool {
	for _, role := range catalog {
		if role.Name == name {
			return true
		}
		if _, ok := role.FindSubRole(name); ok {
			return true
		}
	}
	return false
}
