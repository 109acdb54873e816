package dto

import (
	"go-event-roster/modules/event/entity"
)

type Action string

const (
	ActionStatus        Action = "status"
	ActionSelectRole    Action = "select_role"
	ActionSelectSubRole Action = "select_sub_role"
)

// IntakeRequest is one RSVP button press forwarded by the chat bridge.
// Credentials are the participant's external roles at the time of the press.
type IntakeRequest struct {
	ParticipantID string   `json:"participant_id"`
	Credentials   []string `json:"credentials"`
	Action        Action   `json:"action"`
	Value         string   `json:"value"`
}

type Option struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph,omitempty"`
}

// AttendanceResponse reports the attendee after the call. Options lists what
// the participant may pick next while awaiting a role or sub-role.
type AttendanceResponse struct {
	EventID       string                 `json:"event_id"`
	ParticipantID string                 `json:"participant_id"`
	Status        entity.RSVPStatus      `json:"status"`
	State         entity.AttendanceState `json:"state"`
	PrimaryRole   *string                `json:"primary_role,omitempty"`
	SubRole       *string                `json:"sub_role,omitempty"`
	Glyph         string                 `json:"glyph,omitempty"`
	Changed       bool                   `json:"changed"`
	Options       []Option               `json:"options,omitempty"`
}
