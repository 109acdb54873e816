package service

import (
	"context"
	stdErrors "errors"
	"sync"
	"time"

	"go-event-roster/core/constants"
	"go-event-roster/core/logger"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/venue/gateway"
	"go-event-roster/modules/venue/view"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// RosterPublisher re-renders the roster snapshot of an event into its venue.
// Marks for the same event coalesce: at most one render per event runs at a
// time, and marks that arrive during a render cause exactly one more.
type RosterPublisher struct {
	repo    repository.EventRepositoryInterface
	venue   gateway.Gateway
	timeout time.Duration

	mu      sync.Mutex
	dirty   map[uuid.UUID]bool
	running map[uuid.UUID]bool
	wg      conc.WaitGroup
}

type RosterPublisherInterface interface {
	MarkDirty(eventID uuid.UUID)
	Wait()
}

func NewRosterPublisher(repo repository.EventRepositoryInterface, venue gateway.Gateway) *RosterPublisher {
	return &RosterPublisher{
		repo:    repo,
		venue:   venue,
		timeout: constants.ExternalCallTimeout,
		dirty:   make(map[uuid.UUID]bool),
		running: make(map[uuid.UUID]bool),
	}
}

// MarkDirty schedules a render and returns immediately.
func (p *RosterPublisher) MarkDirty(eventID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dirty[eventID] = true
	if p.running[eventID] {
		return
	}
	p.running[eventID] = true
	p.wg.Go(func() {
		p.drain(eventID)
	})
}

// Wait blocks until every pending render has finished.
func (p *RosterPublisher) Wait() {
	p.wg.Wait()
}

func (p *RosterPublisher) drain(eventID uuid.UUID) {
	for {
		p.mu.Lock()
		if !p.dirty[eventID] {
			delete(p.dirty, eventID)
			delete(p.running, eventID)
			p.mu.Unlock()
			return
		}
		p.dirty[eventID] = false
		p.mu.Unlock()

		if err := p.render(eventID); err != nil {
			logger.Warn("RosterPublisher:render", "event_id", eventID.String(), "error", err)
		}
	}
}

func (p *RosterPublisher) render(eventID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	event, err := p.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil || !event.VenueOpen() {
		return nil
	}

	roster := view.Build(event, false)
	venueID := *event.VenueID

	if event.RosterMessageID != nil {
		err := p.venue.UpdateRosterSnapshot(ctx, venueID, *event.RosterMessageID, roster)
		if err == nil || !stdErrors.Is(err, gateway.ErrVenueNotFound) {
			return err
		}
		// the message was removed on the venue side; post a fresh one
	}

	messageID, err := p.venue.PostRosterSnapshot(ctx, venueID, roster)
	if err != nil {
		return err
	}
	return p.saveMessageID(ctx, eventID, venueID, messageID)
}

func (p *RosterPublisher) saveMessageID(ctx context.Context, eventID uuid.UUID, venueID, messageID string) error {
	_, err := p.repo.Mutate(ctx, eventID, func(e *entity.Event) error {
		if e.VenueID == nil || *e.VenueID != venueID {
			return repository.ErrNoChange
		}
		e.RosterMessageID = &messageID
		return nil
	})
	return err
}
