package dto

import "time"

type ParticipantEngagement struct {
	ParticipantID  string    `json:"participant_id"`
	Accepted       int       `json:"accepted"`
	Tentative      int       `json:"tentative"`
	Declined       int       `json:"declined"`
	LastResponseAt time.Time `json:"last_response_at"`
	DaysSince      int       `json:"days_since_last_response"`
}

type EngagementResponse struct {
	Events       int                     `json:"events"`
	Participants []ParticipantEngagement `json:"participants"`
}
