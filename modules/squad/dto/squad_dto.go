package dto

import (
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/squad/allocator"
)

type BuildSquadsRequest struct {
	Quotas []allocator.Quota `json:"quotas"`
}

// RefreshSquadsRequest carries the dashboard's current layout. Empty Squads
// refreshes the stored layout; empty Quotas keeps the layout's quotas.
type RefreshSquadsRequest struct {
	Squads entity.Squads     `json:"squads"`
	Quotas []allocator.Quota `json:"quotas,omitempty"`
}

type SetMemberRoleRequest struct {
	Role string `json:"role"`
}

type MoveMemberRequest struct {
	SquadID string `json:"squad_id"`
}

type SquadsResponse struct {
	EventID string        `json:"event_id"`
	Version int64         `json:"version"`
	Squads  entity.Squads `json:"squads"`
}

type PublishResponse struct {
	EventID   string `json:"event_id"`
	VenueID   string `json:"venue_id"`
	MessageID string `json:"message_id"`
}

func ToSquadsResponse(e *entity.Event) *SquadsResponse {
	squads := e.Squads
	if squads == nil {
		squads = entity.Squads{}
	}
	return &SquadsResponse{
		EventID: e.ID.String(),
		Version: e.Version,
		Squads:  squads,
	}
}
