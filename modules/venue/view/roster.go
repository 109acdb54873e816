// Package view builds the structured roster snapshot handed to the venue.
// Turning it into a human-readable message is the venue bridge's job.
package view

import (
	"time"

	"go-event-roster/modules/event/entity"
)

const UnassignedRole = "Unassigned"

type Line struct {
	ParticipantID string `json:"participant_id"`
	Glyph         string `json:"glyph,omitempty"`
	SubRole       string `json:"sub_role,omitempty"`
}

type RoleGroup struct {
	Role    string `json:"role"`
	Glyph   string `json:"glyph,omitempty"`
	Members []Line `json:"members"`
}

type SquadView struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Reserve bool   `json:"reserve,omitempty"`
	Members []Line `json:"members"`
}

type RosterView struct {
	EventID   string      `json:"event_id"`
	Title     string      `json:"title"`
	Timezone  string      `json:"timezone"`
	StartAt   time.Time   `json:"start_at"`
	EndAt     time.Time   `json:"end_at"`
	Accepted  []RoleGroup `json:"accepted"`
	Tentative []string    `json:"tentative"`
	Declined  []string    `json:"declined"`
	Squads    []SquadView `json:"squads,omitempty"`
	Total     int         `json:"total_accepted"`
}

// Build groups accepted attendees by role in catalog order. Attending
// participants that have not picked a role yet are listed under Unassigned.
func Build(e *entity.Event, withSquads bool) RosterView {
	loc := e.Location()
	v := RosterView{
		EventID:   e.ID.String(),
		Title:     e.Title,
		Timezone:  e.Timezone,
		StartAt:   e.StartAt.In(loc),
		EndAt:     e.EndAt.In(loc),
		Accepted:  make([]RoleGroup, 0, len(e.RoleCatalog)+1),
		Tentative: make([]string, 0),
		Declined:  make([]string, 0),
	}

	groups := make(map[string]int, len(e.RoleCatalog)+1)
	for _, role := range e.RoleCatalog {
		groups[role.Name] = len(v.Accepted)
		v.Accepted = append(v.Accepted, RoleGroup{Role: role.Name, Glyph: role.Glyph, Members: []Line{}})
	}
	groups[UnassignedRole] = len(v.Accepted)
	v.Accepted = append(v.Accepted, RoleGroup{Role: UnassignedRole, Members: []Line{}})

	for _, a := range e.Attendees {
		switch a.Status {
		case entity.RSVPAttending:
			v.Total++
			role := UnassignedRole
			if a.PrimaryRole != nil {
				role = *a.PrimaryRole
			}
			idx, ok := groups[role]
			if !ok {
				idx = groups[UnassignedRole]
			}
			line := Line{ParticipantID: a.ParticipantID, Glyph: a.Glyph}
			if a.SubRole != nil {
				line.SubRole = *a.SubRole
			}
			v.Accepted[idx].Members = append(v.Accepted[idx].Members, line)
		case entity.RSVPTentative:
			v.Tentative = append(v.Tentative, a.ParticipantID)
		case entity.RSVPDeclined:
			v.Declined = append(v.Declined, a.ParticipantID)
		}
	}

	if withSquads {
		for _, squad := range e.Squads {
			sv := SquadView{Name: squad.Name, Kind: squad.Kind, Reserve: squad.Reserve, Members: make([]Line, 0, len(squad.Members))}
			for _, m := range squad.Members {
				sv.Members = append(sv.Members, Line{ParticipantID: m.ParticipantID, Glyph: m.Glyph, SubRole: m.AssignedRole})
			}
			v.Squads = append(v.Squads, sv)
		}
	}
	return v
}

// Placeholder is posted when a venue opens, before the first real render.
func Placeholder(e *entity.Event) RosterView {
	v := Build(e, false)
	v.Accepted = []RoleGroup{}
	v.Tentative = []string{}
	v.Declined = []string{}
	v.Total = 0
	return v
}
