package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the single source of truth for one scheduled activity. Attendees,
// the role catalog and the squad snapshot are nested and always read and
// written together with the event row.
type Event struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	Title            string        `db:"title" json:"title"`
	Description      string        `db:"description" json:"description"`
	Timezone         string        `db:"timezone" json:"timezone"`
	StartAt          time.Time     `db:"start_at" json:"start_at"`
	EndAt            time.Time     `db:"end_at" json:"end_at"`
	VenueLeadSeconds int64         `db:"venue_lead_seconds" json:"venue_lead_seconds"`
	RestrictedRoles  CredentialSet `db:"restricted_roles" json:"restricted_roles"`
	RoleCatalog      RoleCatalog   `db:"role_catalog" json:"role_catalog"`
	Attendees        Attendees     `db:"attendees" json:"attendees"`
	Squads           Squads        `db:"squads" json:"squads"`
	VenueID          *string       `db:"venue_id" json:"venue_id,omitempty"`
	VenueOpenedAt    *time.Time    `db:"venue_opened_at" json:"venue_opened_at,omitempty"`
	RosterMessageID  *string       `db:"roster_message_id" json:"roster_message_id,omitempty"`
	Recurrence       *string       `db:"recurrence" json:"recurrence,omitempty"`
	SeriesParentID   *uuid.UUID    `db:"series_parent_id" json:"series_parent_id,omitempty"`
	CreatorID        string        `db:"creator_id" json:"creator_id"`
	Archived         bool          `db:"archived" json:"archived"`
	Version          int64         `db:"version" json:"version"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

var (
	ErrInvalidWindow = errors.New("event start must be before end")
	ErrVenuePair     = errors.New("venue id and open time must be set together")
)

func (e *Event) LeadTime() time.Duration {
	return time.Duration(e.VenueLeadSeconds) * time.Second
}

// Location resolves the event timezone, falling back to UTC.
func (e *Event) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (e *Event) VenueOpen() bool {
	return e.VenueID != nil
}

// SetVenue records an opened venue; both fields change together.
func (e *Event) SetVenue(venueID string, openedAt time.Time) {
	e.VenueID = &venueID
	opened := openedAt.UTC()
	e.VenueOpenedAt = &opened
}

func (e *Event) ClearVenue() {
	e.VenueID = nil
	e.VenueOpenedAt = nil
	e.RosterMessageID = nil
}

func (e *Event) IsRestricted() bool {
	return len(e.RestrictedRoles) > 0
}

// Validate checks every persisted invariant of the event and its attendees.
func (e *Event) Validate() error {
	if !e.StartAt.Before(e.EndAt) {
		return ErrInvalidWindow
	}
	if (e.VenueID == nil) != (e.VenueOpenedAt == nil) {
		return ErrVenuePair
	}
	seen := make(map[string]bool, len(e.Attendees))
	for _, attendee := range e.Attendees {
		if seen[attendee.ParticipantID] {
			return fmt.Errorf("duplicate attendee %s", attendee.ParticipantID)
		}
		seen[attendee.ParticipantID] = true
		if err := attendee.Validate(e.RoleCatalog); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies nested state so a mutation can be discarded on conflict.
func (e *Event) Clone() *Event {
	out := *e
	out.RestrictedRoles = append(CredentialSet(nil), e.RestrictedRoles...)
	out.RoleCatalog = e.RoleCatalog.Clone()
	out.Attendees = make(Attendees, len(e.Attendees))
	for i, a := range e.Attendees {
		out.Attendees[i] = a
		if a.PrimaryRole != nil {
			role := *a.PrimaryRole
			out.Attendees[i].PrimaryRole = &role
		}
		if a.SubRole != nil {
			sub := *a.SubRole
			out.Attendees[i].SubRole = &sub
		}
	}
	out.Squads = e.Squads.Clone()
	return &out
}

type PaginatedEvents struct {
	Items      []Event `json:"items"`
	TotalItems int     `json:"total_items"`
}
