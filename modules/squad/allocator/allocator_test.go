package allocator

import (
	"fmt"
	"reflect"
	"testing"

	"go-event-roster/modules/event/catalog"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/squad/policy"
)

func attendee(pid, role, sub string) entity.Attendee {
	a := entity.Attendee{ParticipantID: pid, Status: entity.RSVPAttending}
	if role != "" {
		a.PrimaryRole = &role
	}
	if sub != "" {
		a.SubRole = &sub
	}
	return a
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sq%d", n)
	}
}

func roster() entity.Attendees {
	return entity.Attendees{
		attendee("r1", "Infantry", "Rifleman"),
		attendee("c1", "Commander", ""),
		attendee("o1", "Infantry", "Officer"),
		attendee("m1", "Infantry", "Medic"),
		attendee("o2", "Infantry", "Officer"),
		attendee("r2", "Infantry", "Rifleman"),
		attendee("a1", "Infantry", "Anti-Tank"),
		attendee("t1", "Armour", "Tank Commander"),
		attendee("cr1", "Armour", "Crewman"),
		attendee("o3", "Infantry", "Officer"),
		{ParticipantID: "d1", Status: entity.RSVPDeclined},
		attendee("x1", "", ""),
	}
}

func names(squads entity.Squads) map[string][]string {
	out := make(map[string][]string)
	for _, s := range squads {
		for _, m := range s.Members {
			out[s.Name] = append(out[s.Name], m.ParticipantID)
		}
	}
	return out
}

func input(prior entity.Squads) Input {
	return Input{
		Attendees: roster(),
		Catalog:   catalog.Default(),
		Quotas: []Quota{
			{Kind: "Command", Count: 1},
			{Kind: "Infantry", Count: 2, Size: 3},
			{Kind: "Armour", Count: 1},
		},
		Prior:  prior,
		Policy: policy.Default(),
		NewID:  seqIDs(),
	}
}

func TestName(t *testing.T) {
	tests := map[int]string{0: "Infantry A", 25: "Infantry Z", 26: "Infantry Z1", 27: "Infantry Z2"}
	for i, want := range tests {
		if got := Name("Infantry", i); got != want {
			t.Errorf("Name(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestAllocateFillsByPolicy(t *testing.T) {
	got := names(Allocate(input(nil)))

	want := map[string][]string{
		"Command A":  {"c1"},
		"Infantry A": {"o1", "a1", "m1"},
		"Infantry B": {"o2", "r1", "r2"},
		"Armour A":   {"t1", "cr1"},
		"Reserves":   {"o3", "x1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("allocation = %v\nwant %v", got, want)
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	first := Allocate(input(nil))
	second := Allocate(input(nil))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n%v\n%v", first, second)
	}
}

func TestRefreshKeepsManualMove(t *testing.T) {
	squads := Allocate(input(nil))

	// move r1 from Infantry B into Infantry A by hand
	si, mi, _ := squads.FindMember("r1")
	moved := squads[si].Members[mi]
	moved.Pinned = true
	squads[si].Members = append(squads[si].Members[:mi], squads[si].Members[mi+1:]...)
	ai, _ := squads.FindByID(squads[1].ID)
	squads[ai].Members = append(squads[ai].Members, moved)

	again := Allocate(input(squads))
	si, _, ok := again.FindMember("r1")
	if !ok || again[si].Name != "Infantry A" {
		t.Fatalf("manual move lost: %v", names(again))
	}
	for i := range again {
		if again[i].Name != squads[i].Name || again[i].ID != squads[i].ID {
			t.Fatalf("squad %d identity changed: %s/%s -> %s/%s", i, squads[i].Name, squads[i].ID, again[i].Name, again[i].ID)
		}
	}
}

func TestRefreshOnlyTouchesChangedAttendees(t *testing.T) {
	squads := Allocate(input(nil))
	before := names(squads)

	in := input(squads)
	for i := range in.Attendees {
		if in.Attendees[i].ParticipantID == "m1" {
			in.Attendees[i] = entity.Attendee{ParticipantID: "m1", Status: entity.RSVPDeclined}
		}
	}
	in.Attendees = append(in.Attendees, attendee("m2", "Infantry", "Medic"))

	after := names(Allocate(in))
	if !reflect.DeepEqual(after["Infantry B"], before["Infantry B"]) {
		t.Fatalf("untouched squad changed: %v -> %v", before["Infantry B"], after["Infantry B"])
	}
	// the new medic takes the freed medic slot
	if want := []string{"o1", "a1", "m2"}; !reflect.DeepEqual(after["Infantry A"], want) {
		t.Fatalf("Infantry A = %v, want %v", after["Infantry A"], want)
	}
	if want := []string{"o3", "x1"}; !reflect.DeepEqual(after["Reserves"], want) {
		t.Fatalf("Reserves = %v, want %v", after["Reserves"], want)
	}
}

func TestPinnedReserveMemberStaysInReserve(t *testing.T) {
	squads := Allocate(input(nil))
	ci, mi, _ := squads.FindMember("c1")
	member := squads[ci].Members[mi]
	member.Pinned = true
	squads[ci].Members = squads[ci].Members[:0]
	ri := len(squads) - 1
	squads[ri].Members = append(squads[ri].Members, member)

	again := Allocate(input(squads))
	si, _, _ := again.FindMember("c1")
	if !again[si].Reserve {
		t.Fatalf("pinned reserve member moved to %s", again[si].Name)
	}
	if len(again[0].Members) != 0 {
		t.Fatalf("Command A refilled with %v", again[0].Members)
	}
}

func TestQuotasFrom(t *testing.T) {
	squads := Allocate(input(nil))
	got := QuotasFrom(squads)
	want := []Quota{{Kind: "Command", Count: 1, Size: 1}, {Kind: "Infantry", Count: 2, Size: 3}, {Kind: "Armour", Count: 1, Size: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("QuotasFrom = %v, want %v", got, want)
	}
}
