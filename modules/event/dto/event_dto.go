package dto

import (
	"time"

	"go-event-roster/modules/event/entity"
)

// ===================== Request DTOs =====================

type CreateEventRequest struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Timezone         string             `json:"timezone"`
	StartAt          time.Time          `json:"start_at"`
	EndAt            time.Time          `json:"end_at"`
	VenueLeadMinutes int                `json:"venue_lead_minutes"`
	RestrictedRoles  []string           `json:"restricted_roles"`
	RoleCatalog      entity.RoleCatalog `json:"role_catalog"` // defaults to the configured catalog
	Recurrence       string             `json:"recurrence"`   // RRULE, e.g. FREQ=WEEKLY;BYDAY=SA
}

// UpdateEventRequest changes only the fields that are set. The role catalog
// cannot be changed after creation.
type UpdateEventRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Timezone         *string    `json:"timezone"`
	StartAt          *time.Time `json:"start_at"`
	EndAt            *time.Time `json:"end_at"`
	VenueLeadMinutes *int       `json:"venue_lead_minutes"`
	RestrictedRoles  *[]string  `json:"restricted_roles"`
	Recurrence       *string    `json:"recurrence"`
}

type ListEventsQuery struct {
	Mine            bool
	IncludeArchived bool
	Upcoming        bool
	Page            int
	PageSize        int
}

// ===================== Response DTOs =====================

type AttendeeResponse struct {
	ParticipantID string                 `json:"participant_id"`
	Status        entity.RSVPStatus      `json:"status"`
	State         entity.AttendanceState `json:"state"`
	PrimaryRole   *string                `json:"primary_role,omitempty"`
	SubRole       *string                `json:"sub_role,omitempty"`
	Glyph         string                 `json:"glyph,omitempty"`
	RespondedAt   time.Time              `json:"responded_at"`
}

type EventResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Timezone         string             `json:"timezone"`
	StartAt          time.Time          `json:"start_at"`
	EndAt            time.Time          `json:"end_at"`
	VenueLeadMinutes int64              `json:"venue_lead_minutes"`
	VenueOpensAt     time.Time          `json:"venue_opens_at"`
	RestrictedRoles  []string           `json:"restricted_roles"`
	RoleCatalog      entity.RoleCatalog `json:"role_catalog"`
	Attendees        []AttendeeResponse `json:"attendees"`
	VenueID          *string            `json:"venue_id,omitempty"`
	VenueOpenedAt    *time.Time         `json:"venue_opened_at,omitempty"`
	Recurrence       *string            `json:"recurrence,omitempty"`
	SeriesParentID   *string            `json:"series_parent_id,omitempty"`
	CreatorID        string             `json:"creator_id"`
	Archived         bool               `json:"archived"`
	Version          int64              `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type PaginatedEventResponse struct {
	Items      []EventResponse `json:"items"`
	TotalItems int             `json:"total_items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

func ToAttendeeResponse(a entity.Attendee, catalog entity.RoleCatalog) AttendeeResponse {
	return AttendeeResponse{
		ParticipantID: a.ParticipantID,
		Status:        a.Status,
		State:         a.State(catalog),
		PrimaryRole:   a.PrimaryRole,
		SubRole:       a.SubRole,
		Glyph:         a.Glyph,
		RespondedAt:   a.RespondedAt,
	}
}

func ToEventResponse(e *entity.Event) *EventResponse {
	loc := e.Location()
	attendees := make([]AttendeeResponse, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		attendees = append(attendees, ToAttendeeResponse(a, e.RoleCatalog))
	}

	var parent *string
	if e.SeriesParentID != nil {
		s := e.SeriesParentID.String()
		parent = &s
	}
	restricted := []string(e.RestrictedRoles)
	if restricted == nil {
		restricted = []string{}
	}

	return &EventResponse{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		Timezone:         e.Timezone,
		StartAt:          e.StartAt.In(loc),
		EndAt:            e.EndAt.In(loc),
		VenueLeadMinutes: e.VenueLeadSeconds / 60,
		VenueOpensAt:     e.StartAt.Add(-e.LeadTime()).In(loc),
		RestrictedRoles:  restricted,
		RoleCatalog:      e.RoleCatalog,
		Attendees:        attendees,
		VenueID:          e.VenueID,
		VenueOpenedAt:    e.VenueOpenedAt,
		Recurrence:       e.Recurrence,
		SeriesParentID:   parent,
		CreatorID:        e.CreatorID,
		Archived:         e.Archived,
		Version:          e.Version,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func ToEventResponses(events []entity.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, *ToEventResponse(&events[i]))
	}
	return out
}
