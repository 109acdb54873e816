package view

import (
	"testing"
	"time"

	"go-event-roster/modules/event/entity"
)

func strPtr(s string) *string { return &s }

func TestBuildGroupsByCatalogOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	e := &entity.Event{
		Title:   "Op",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
		RoleCatalog: entity.RoleCatalog{
			{Name: "Commander", Glyph: "*"},
			{Name: "Infantry", Glyph: "i", SubRoles: []entity.SubRoleEntry{{Name: "Medic", Glyph: "+"}}},
		},
		Attendees: entity.Attendees{
			{ParticipantID: "a", Status: entity.RSVPAttending, PrimaryRole: strPtr("Infantry"), SubRole: strPtr("Medic"), Glyph: "+"},
			{ParticipantID: "b", Status: entity.RSVPAttending},
			{ParticipantID: "c", Status: entity.RSVPAttending, PrimaryRole: strPtr("Commander"), Glyph: "*"},
			{ParticipantID: "d", Status: entity.RSVPTentative},
			{ParticipantID: "e", Status: entity.RSVPDeclined},
		},
		Squads: entity.Squads{{Name: "Infantry A", Kind: "Infantry", Members: []entity.SquadMember{{ParticipantID: "a", AssignedRole: "Medic"}}}},
	}

	v := Build(e, true)

	if v.Total != 3 {
		t.Fatalf("Total = %d, want 3", v.Total)
	}
	wantRoles := []string{"Commander", "Infantry", UnassignedRole}
	for i, role := range wantRoles {
		if v.Accepted[i].Role != role {
			t.Fatalf("Accepted[%d].Role = %q, want %q", i, v.Accepted[i].Role, role)
		}
	}
	if got := v.Accepted[1].Members[0]; got.ParticipantID != "a" || got.SubRole != "Medic" || got.Glyph != "+" {
		t.Fatalf("Infantry line = %+v", got)
	}
	if got := v.Accepted[2].Members[0].ParticipantID; got != "b" {
		t.Fatalf("Unassigned = %q, want b", got)
	}
	if len(v.Tentative) != 1 || len(v.Declined) != 1 {
		t.Fatalf("tentative/declined = %v/%v", v.Tentative, v.Declined)
	}
	if len(v.Squads) != 1 || v.Squads[0].Members[0].SubRole != "Medic" {
		t.Fatalf("Squads = %+v", v.Squads)
	}

	if without := Build(e, false); len(without.Squads) != 0 {
		t.Fatalf("Squads without flag = %d, want 0", len(without.Squads))
	}
}
