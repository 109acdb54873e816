package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/constants"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/core/params"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	eventService "go-event-roster/modules/event/service"
	"go-event-roster/modules/scheduler/queue"
	"go-event-roster/modules/venue/gateway"
	"go-event-roster/modules/venue/view"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// RosterMarker is asked for a full render once a venue has opened.
type RosterMarker interface {
	MarkDirty(eventID uuid.UUID)
}

// Archiver keeps the final roster of an event once it has closed.
type Archiver interface {
	ArchiveEvent(ctx context.Context, event *entity.Event) error
}

// SchedulerService owns the open and close timers of every event. Timer
// state is never authoritative: each fire re-reads the event and Recover
// rebuilds all timers from the store.
type SchedulerService struct {
	repo        repository.EventRepositoryInterface
	venue       gateway.Gateway
	queue       queue.TimerQueue
	publisher   RosterMarker
	archiver    Archiver
	clock       clock.Clock
	fireTimeout time.Duration
	callTimeout time.Duration
	concurrency int
}

type SchedulerServiceInterface interface {
	Schedule(ctx context.Context, event *entity.Event)
	Cancel(ctx context.Context, eventID uuid.UUID)
	Recover(ctx context.Context) (int, error)
	OpenNow(ctx context.Context, actor params.Actor, eventID uuid.UUID) *errors.AppError
	CloseNow(ctx context.Context, actor params.Actor, eventID uuid.UUID) *errors.AppError
	SpawnNextOccurrences(ctx context.Context) (int, error)
}

type Options struct {
	Publisher           RosterMarker
	Archiver            Archiver
	Clock               clock.Clock
	FireTimeout         time.Duration
	RecoveryConcurrency int
}

func NewSchedulerService(repo repository.EventRepositoryInterface, venue gateway.Gateway, q queue.TimerQueue, opts Options) *SchedulerService {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	fireTimeout := opts.FireTimeout
	if fireTimeout <= 0 {
		fireTimeout = time.Minute
	}
	concurrency := opts.RecoveryConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	s := &SchedulerService{
		repo:        repo,
		venue:       venue,
		queue:       q,
		publisher:   opts.Publisher,
		archiver:    opts.Archiver,
		clock:       clk,
		fireTimeout: fireTimeout,
		callTimeout: constants.ExternalCallTimeout,
		concurrency: concurrency,
	}
	q.SetHandler(s.handle)
	return s
}

// Schedule (re)computes the timers of event. Archived events lose theirs.
// An event whose venue never opened and whose close time has passed is
// closed out directly instead of opening a venue for a finished event.
func (s *SchedulerService) Schedule(ctx context.Context, event *entity.Event) {
	if event.Archived {
		s.Cancel(ctx, event.ID)
		return
	}

	now := s.clock.Now()
	closeAt := CloseAt(event)

	if event.VenueOpen() || !now.Before(closeAt) {
		s.cancelKind(ctx, queue.KindOpen, event.ID)
		s.scheduleKind(ctx, queue.KindClose, event.ID, closeAt)
		return
	}
	s.cancelKind(ctx, queue.KindClose, event.ID)
	s.scheduleKind(ctx, queue.KindOpen, event.ID, OpenAt(event))
}

// Cancel drops both timers of an event.
func (s *SchedulerService) Cancel(ctx context.Context, eventID uuid.UUID) {
	s.cancelKind(ctx, queue.KindOpen, eventID)
	s.cancelKind(ctx, queue.KindClose, eventID)
}

func (s *SchedulerService) scheduleKind(ctx context.Context, kind queue.Kind, eventID uuid.UUID, at time.Time) {
	if err := s.queue.Schedule(ctx, kind, eventID, at); err != nil {
		logger.Error("SchedulerService:Schedule", "kind", kind, "event_id", eventID.String(), "at", at, "error", err)
		return
	}
	logger.Debug("SchedulerService:Schedule", "kind", kind, "event_id", eventID.String(), "at", at)
}

func (s *SchedulerService) cancelKind(ctx context.Context, kind queue.Kind, eventID uuid.UUID) {
	if err := s.queue.Cancel(ctx, kind, eventID); err != nil {
		logger.Warn("SchedulerService:Cancel", "kind", kind, "event_id", eventID.String(), "error", err)
	}
}

// Recover re-derives every non-archived event's timers from the store.
func (s *SchedulerService) Recover(ctx context.Context) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.fireTimeout)
	events, err := s.repo.ListActive(listCtx)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list active events: %w", err)
	}

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i := range events {
		event := &events[i]
		p.Go(func() {
			callCtx, cancel := s.callCtx(ctx)
			defer cancel()
			s.Schedule(callCtx, event)
		})
	}
	p.Wait()

	logger.Info("SchedulerService:Recover", "events", len(events))
	return len(events), nil
}

func (s *SchedulerService) handle(ctx context.Context, kind queue.Kind, eventID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.fireTimeout)
	defer cancel()

	switch kind {
	case queue.KindOpen:
		return s.fireOpen(ctx, eventID, false)
	case queue.KindClose:
		return s.fireClose(ctx, eventID, false)
	default:
		return fmt.Errorf("unknown timer kind %q", kind)
	}
}

// FireOpen runs the open sequence for a due timer.
func (s *SchedulerService) FireOpen(ctx context.Context, eventID uuid.UUID) error {
	return s.fireOpen(ctx, eventID, false)
}

// FireClose runs the close sequence for a due timer.
func (s *SchedulerService) FireClose(ctx context.Context, eventID uuid.UUID) error {
	return s.fireClose(ctx, eventID, false)
}

func (s *SchedulerService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *SchedulerService) fireOpen(ctx context.Context, eventID uuid.UUID, force bool) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil || event.Archived {
		logger.Info("SchedulerService:FireOpen:Gone", "event_id", eventID.String())
		return nil
	}
	if event.VenueOpen() {
		s.scheduleKind(ctx, queue.KindClose, eventID, CloseAt(event))
		return nil
	}
	if openAt := OpenAt(event); !force && s.clock.Now().Before(openAt) {
		// the event moved later since this timer was set
		s.scheduleKind(ctx, queue.KindOpen, eventID, openAt)
		return nil
	}

	callCtx, cancel := s.callCtx(ctx)
	venueID, err := s.venue.CreateVenue(callCtx, event.Title)
	cancel()
	if err != nil {
		return fmt.Errorf("create venue: %w", err)
	}

	openedAt := s.clock.Now().UTC()
	event, err = s.repo.Mutate(ctx, eventID, func(e *entity.Event) error {
		if e.Archived || e.VenueOpen() {
			return repository.ErrNoChange
		}
		e.SetVenue(venueID, openedAt)
		return nil
	})
	if err != nil || event == nil || event.VenueID == nil || *event.VenueID != venueID {
		s.discardVenue(ctx, eventID, venueID)
		if err != nil {
			return fmt.Errorf("persist venue: %w", err)
		}
		return nil
	}
	logger.Info("SchedulerService:FireOpen:Opened", "event_id", eventID.String(), "venue_id", venueID)

	s.postPlaceholder(ctx, event, venueID)

	for _, a := range event.Attendees.Attending() {
		callCtx, cancel := s.callCtx(ctx)
		if err := s.venue.AddMember(callCtx, venueID, a.ParticipantID); err != nil {
			logger.Warn("SchedulerService:FireOpen:AddMember", "event_id", eventID.String(), "participant_id", a.ParticipantID, "error", err)
		}
		cancel()
	}

	if s.publisher != nil {
		s.publisher.MarkDirty(eventID)
	}
	s.scheduleKind(ctx, queue.KindClose, eventID, CloseAt(event))
	return nil
}

func (s *SchedulerService) postPlaceholder(ctx context.Context, event *entity.Event, venueID string) {
	callCtx, cancel := s.callCtx(ctx)
	messageID, err := s.venue.PostRosterSnapshot(callCtx, venueID, view.Placeholder(event))
	cancel()
	if err != nil {
		logger.Warn("SchedulerService:FireOpen:PostRosterSnapshot", "event_id", event.ID.String(), "error", err)
		return
	}

	_, err = s.repo.Mutate(ctx, event.ID, func(e *entity.Event) error {
		if e.VenueID == nil || *e.VenueID != venueID {
			return repository.ErrNoChange
		}
		e.RosterMessageID = &messageID
		return nil
	})
	if err != nil {
		logger.Warn("SchedulerService:FireOpen:SaveMessageID", "event_id", event.ID.String(), "error", err)
	}
}

// discardVenue closes a venue this process created but could not record.
func (s *SchedulerService) discardVenue(ctx context.Context, eventID uuid.UUID, venueID string) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.venue.CloseVenue(callCtx, venueID); err != nil && !stdErrors.Is(err, gateway.ErrVenueNotFound) {
		logger.Warn("SchedulerService:FireOpen:DiscardVenue", "event_id", eventID.String(), "venue_id", venueID, "error", err)
	}
}

func (s *SchedulerService) fireClose(ctx context.Context, eventID uuid.UUID, force bool) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil || event.Archived {
		logger.Info("SchedulerService:FireClose:Gone", "event_id", eventID.String())
		return nil
	}
	if closeAt := CloseAt(event); !force && s.clock.Now().Before(closeAt) {
		s.scheduleKind(ctx, queue.KindClose, eventID, closeAt)
		return nil
	}

	var closedVenue *string
	if event.VenueOpen() {
		callCtx, cancel := s.callCtx(ctx)
		err := s.venue.CloseVenue(callCtx, *event.VenueID)
		cancel()
		if err != nil && !stdErrors.Is(err, gateway.ErrVenueNotFound) {
			return fmt.Errorf("close venue: %w", err)
		}
		closedVenue = event.VenueID
	}

	archivedNow := false
	archived, err := s.repo.Mutate(ctx, eventID, func(e *entity.Event) error {
		archivedNow = false
		if e.Archived {
			return repository.ErrNoChange
		}
		if e.VenueOpen() && (closedVenue == nil || *e.VenueID != *closedVenue) {
			// a different venue was opened while this one closed
			return errors.NewAppError(errors.ErrConflict, "Venue changed during close", nil)
		}
		e.ClearVenue()
		e.Archived = true
		archivedNow = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive event: %w", err)
	}

	s.cancelKind(ctx, queue.KindOpen, eventID)
	logger.Info("SchedulerService:FireClose:Archived", "event_id", eventID.String())
	if archivedNow {
		s.archive(ctx, archived)
	}
	return nil
}

// archive hands the closed event to the archiver. Failures are logged only;
// the event is already archived in the store.
func (s *SchedulerService) archive(ctx context.Context, event *entity.Event) {
	if s.archiver == nil || event == nil {
		return
	}
	if err := s.archiver.ArchiveEvent(ctx, event); err != nil {
		logger.Warn("SchedulerService:Archive", "event_id", event.ID.String(), "error", err)
	}
}

func (s *SchedulerService) authorize(ctx context.Context, actor params.Actor, eventID uuid.UUID) *errors.AppError {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return eventService.ToAppError(err, "Failed to load event")
	}
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if !actor.CanManage(event.CreatorID) {
		return errors.NewAppError(errors.ErrForbidden, "Only the creator or a manager can do this", nil)
	}
	if event.Archived {
		return errors.NewAppError(errors.ErrInvalidInput, "Event is archived", nil)
	}
	return nil
}

// OpenNow is the operator re-trigger for an open that failed or is not due yet.
func (s *SchedulerService) OpenNow(ctx context.Context, actor params.Actor, eventID uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, s.fireTimeout)
	defer cancel()

	if appErr := s.authorize(ctx, actor, eventID); appErr != nil {
		return appErr
	}
	if err := s.fireOpen(ctx, eventID, true); err != nil {
		logger.Error("SchedulerService:OpenNow", "event_id", eventID.String(), "error", err)
		return toFireError(err, "Failed to open venue")
	}
	return nil
}

// CloseNow closes the venue and archives the event ahead of its timer.
func (s *SchedulerService) CloseNow(ctx context.Context, actor params.Actor, eventID uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, s.fireTimeout)
	defer cancel()

	if appErr := s.authorize(ctx, actor, eventID); appErr != nil {
		return appErr
	}
	if err := s.fireClose(ctx, eventID, true); err != nil {
		logger.Error("SchedulerService:CloseNow", "event_id", eventID.String(), "error", err)
		return toFireError(err, "Failed to close venue")
	}
	return nil
}

func toFireError(err error, message string) *errors.AppError {
	var appErr *errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}
	if stdErrors.Is(err, repository.ErrVersionConflict) || stdErrors.Is(err, repository.ErrEventNotFound) {
		return eventService.ToAppError(err, message)
	}
	return errors.NewAppError(errors.ErrTransient, message, err)
}
