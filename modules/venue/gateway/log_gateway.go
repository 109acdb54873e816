package gateway

import (
	"context"
	"sync"

	"go-event-roster/core/logger"
	"go-event-roster/core/utils"
	"go-event-roster/modules/venue/view"
)

// LogGateway keeps venues in memory and logs every call. It is used when no
// bridge is configured and as the venue in tests.
type LogGateway struct {
	mu       sync.Mutex
	venues   map[string]map[string]bool
	messages map[string]view.RosterView
	calls    []string
}

func NewLogGateway() *LogGateway {
	return &LogGateway{
		venues:   make(map[string]map[string]bool),
		messages: make(map[string]view.RosterView),
	}
}

func (g *LogGateway) record(call string) {
	g.calls = append(g.calls, call)
}

func (g *LogGateway) CreateVenue(_ context.Context, title string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "venue-" + utils.GenerateID()
	g.venues[id] = make(map[string]bool)
	g.record("create")
	logger.Info("LogGateway:CreateVenue", "venue_id", id, "title", title)
	return id, nil
}

func (g *LogGateway) AddMember(_ context.Context, venueID, participantID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.venues[venueID]
	if !ok {
		return ErrVenueNotFound
	}
	members[participantID] = true
	g.record("add:" + participantID)
	logger.Info("LogGateway:AddMember", "venue_id", venueID, "participant_id", participantID)
	return nil
}

func (g *LogGateway) RemoveMember(_ context.Context, venueID, participantID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if members, ok := g.venues[venueID]; ok {
		delete(members, participantID)
	}
	g.record("remove:" + participantID)
	logger.Info("LogGateway:RemoveMember", "venue_id", venueID, "participant_id", participantID)
	return nil
}

func (g *LogGateway) CloseVenue(_ context.Context, venueID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.venues[venueID]; !ok {
		return ErrVenueNotFound
	}
	delete(g.venues, venueID)
	g.record("close")
	logger.Info("LogGateway:CloseVenue", "venue_id", venueID)
	return nil
}

func (g *LogGateway) PostRosterSnapshot(_ context.Context, venueID string, roster view.RosterView) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.venues[venueID]; !ok {
		return "", ErrVenueNotFound
	}
	id := "msg-" + utils.GenerateID()
	g.messages[id] = roster
	g.record("post")
	logger.Info("LogGateway:PostRosterSnapshot", "venue_id", venueID, "message_id", id, "accepted", roster.Total)
	return id, nil
}

func (g *LogGateway) UpdateRosterSnapshot(_ context.Context, venueID, messageID string, roster view.RosterView) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.venues[venueID]; !ok {
		return ErrVenueNotFound
	}
	g.messages[messageID] = roster
	g.record("update")
	logger.Info("LogGateway:UpdateRosterSnapshot", "venue_id", venueID, "message_id", messageID, "accepted", roster.Total)
	return nil
}

// Exists reports whether venueID is open.
func (g *LogGateway) Exists(venueID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.venues[venueID]
	return ok
}

// IsMember reports whether participantID is currently in venueID.
func (g *LogGateway) IsMember(venueID, participantID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.venues[venueID][participantID]
}

// Message returns the last roster stored under messageID.
func (g *LogGateway) Message(messageID string) (view.RosterView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.messages[messageID]
	return v, ok
}

// Calls returns the call log in order.
func (g *LogGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}
