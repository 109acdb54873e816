package entity

import (
	"fmt"
	"time"
)

// RSVPStatus is an attendee's response to an event.
type RSVPStatus string

const (
	RSVPUnset     RSVPStatus = "unset"
	RSVPAttending RSVPStatus = "attending"
	RSVPTentative RSVPStatus = "tentative"
	RSVPDeclined  RSVPStatus = "declined"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPAttending, RSVPTentative, RSVPDeclined:
		return true
	}
	return false
}

// AttendanceState is the derived position of an attendee in the response flow.
type AttendanceState string

const (
	StateNoResponse      AttendanceState = "no_response"
	StateAwaitingRole    AttendanceState = "awaiting_role"
	StateAwaitingSubRole AttendanceState = "awaiting_sub_role"
	StateConfirmed       AttendanceState = "confirmed"
	StateTentative       AttendanceState = "tentative"
	StateDeclined        AttendanceState = "declined"
)

type Attendee struct {
	ParticipantID string     `json:"participant_id"`
	Status        RSVPStatus `json:"status"`
	PrimaryRole   *string    `json:"primary_role,omitempty"`
	SubRole       *string    `json:"sub_role,omitempty"`
	Glyph         string     `json:"glyph,omitempty"`
	RespondedAt   time.Time  `json:"responded_at"`
}

type Attendees []Attendee

// State derives the attendance state against the event's catalog.
func (a Attendee) State(catalog RoleCatalog) AttendanceState {
	switch a.Status {
	case RSVPTentative:
		return StateTentative
	case RSVPDeclined:
		return StateDeclined
	case RSVPAttending:
	default:
		return StateNoResponse
	}

	if a.PrimaryRole == nil {
		return StateAwaitingRole
	}
	role, ok := catalog.Find(*a.PrimaryRole)
	if ok && role.HasSubRoles() && a.SubRole == nil {
		return StateAwaitingSubRole
	}
	return StateConfirmed
}

// ClearRole discards the role selection and its cached glyph.
func (a *Attendee) ClearRole() {
	a.PrimaryRole = nil
	a.SubRole = nil
	a.Glyph = ""
}

// Validate checks the attendee invariants against the catalog.
func (a Attendee) Validate(catalog RoleCatalog) error {
	if a.Status != RSVPAttending && (a.PrimaryRole != nil || a.SubRole != nil) {
		return fmt.Errorf("attendee %s: role set while status is %s", a.ParticipantID, a.Status)
	}
	if a.SubRole != nil && a.PrimaryRole == nil {
		return fmt.Errorf("attendee %s: sub-role without primary role", a.ParticipantID)
	}
	if a.SubRole != nil {
		role, ok := catalog.Find(*a.PrimaryRole)
		if !ok {
			return fmt.Errorf("attendee %s: unknown role %q", a.ParticipantID, *a.PrimaryRole)
		}
		if _, ok := role.FindSubRole(*a.SubRole); !ok {
			return fmt.Errorf("attendee %s: role %q does not declare sub-role %q", a.ParticipantID, *a.PrimaryRole, *a.SubRole)
		}
	}
	return nil
}

func (a Attendees) Find(participantID string) (int, bool) {
	for i, attendee := range a {
		if attendee.ParticipantID == participantID {
			return i, true
		}
	}
	return -1, false
}

// Attending returns attending records in roster order.
func (a Attendees) Attending() []Attendee {
	out := make([]Attendee, 0, len(a))
	for _, attendee := range a {
		if attendee.Status == RSVPAttending {
			out = append(out, attendee)
		}
	}
	return out
}
