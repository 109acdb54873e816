package service

import (
	"context"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	eventRepo "go-event-roster/modules/event/repository"
	"go-event-roster/modules/lock/dto"
	"go-event-roster/modules/lock/repository"

	"github.com/google/uuid"
)

// LockService hands out renewable, expiring edit locks. Clients renew by
// calling Acquire again as a heartbeat.
type LockService struct {
	store  repository.Store
	events eventRepo.EventRepositoryInterface
	clock  clock.Clock
	ttl    time.Duration
}

type LockServiceInterface interface {
	Acquire(ctx context.Context, eventID uuid.UUID, holderID string) (*dto.LockStatusResponse, *errors.AppError)
	Release(ctx context.Context, eventID uuid.UUID, holderID string) *errors.AppError
	Status(ctx context.Context, eventID uuid.UUID, callerID string) (*dto.LockStatusResponse, *errors.AppError)
	Require(ctx context.Context, eventID uuid.UUID, holderID string) *errors.AppError
	Clear(ctx context.Context, eventID uuid.UUID) error
}

func NewLockService(store repository.Store, events eventRepo.EventRepositoryInterface, clk clock.Clock, ttl time.Duration) *LockService {
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &LockService{store: store, events: events, clock: clk, ttl: ttl}
}

func (s *LockService) ensureEvent(ctx context.Context, eventID uuid.UUID) *errors.AppError {
	if s.events == nil {
		return nil
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrTransient, "Failed to load event", err)
	}
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return nil
}

// Acquire grants or renews the lock. Contention returns LOCKED with the
// current holder and expiry in the error details.
func (s *LockService) Acquire(ctx context.Context, eventID uuid.UUID, holderID string) (*dto.LockStatusResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if holderID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Holder is required", nil)
	}
	if appErr := s.ensureEvent(ctx, eventID); appErr != nil {
		return nil, appErr
	}

	lock, granted, err := s.store.Acquire(ctx, eventID.String(), holderID, s.clock.Now(), s.ttl)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTransient, "Lock store unavailable", err)
	}
	status := dto.ToLockStatus(eventID.String(), &lock, holderID)
	if !granted {
		logger.Info("LockService:Acquire:Locked", "event_id", eventID.String(), "holder", lock.HolderID, "requester", holderID)
		return nil, errors.NewAppError(errors.ErrLocked, "Event is being edited by another operator", nil).WithDetails(status)
	}
	return status, nil
}

// Release is idempotent: releasing a lock held by someone else, or none at
// all, succeeds without effect.
func (s *LockService) Release(ctx context.Context, eventID uuid.UUID, holderID string) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if err := s.store.Release(ctx, eventID.String(), holderID); err != nil {
		return errors.NewAppError(errors.ErrTransient, "Lock store unavailable", err)
	}
	return nil
}

func (s *LockService) Status(ctx context.Context, eventID uuid.UUID, callerID string) (*dto.LockStatusResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	lock, err := s.store.Get(ctx, eventID.String(), s.clock.Now())
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTransient, "Lock store unavailable", err)
	}
	return dto.ToLockStatus(eventID.String(), lock, callerID), nil
}

// Require fails with LOCKED unless holderID currently holds a live lock.
func (s *LockService) Require(ctx context.Context, eventID uuid.UUID, holderID string) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	lock, err := s.store.Get(ctx, eventID.String(), s.clock.Now())
	if err != nil {
		return errors.NewAppError(errors.ErrTransient, "Lock store unavailable", err)
	}
	if lock == nil {
		return errors.NewAppError(errors.ErrLocked, "Acquire the edit lock first", nil).
			WithDetails(dto.ToLockStatus(eventID.String(), nil, holderID))
	}
	if lock.HolderID != holderID {
		return errors.NewAppError(errors.ErrLocked, "Event is being edited by another operator", nil).
			WithDetails(dto.ToLockStatus(eventID.String(), lock, holderID))
	}
	return nil
}

// Clear drops any lock on the event; used when the event is deleted.
func (s *LockService) Clear(ctx context.Context, eventID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	return s.store.Clear(ctx, eventID.String())
}
