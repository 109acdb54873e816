// Package allocator splits an event's attending roster into squads.
//
// Allocation is a pure function of its input: the same roster, quotas and
// prior squads always give the same result. Attendees are ordered by primary
// role then sub-role, following catalog order, and keep roster order inside
// each group. Squads named like a prior squad keep its id and its members
// that are still attending; pinned members are never moved by a refresh.
package allocator

import (
	"sort"
	"strconv"

	"go-event-roster/core/utils"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/squad/policy"
)

const ReserveKind = "Reserve"

// Quota asks for Count squads of Kind with Size members each. A zero Size
// takes the kind's default from the policy.
type Quota struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
	Size  int    `json:"size,omitempty"`
}

type Input struct {
	Attendees entity.Attendees
	Catalog   entity.RoleCatalog
	Quotas    []Quota
	Prior     entity.Squads
	Policy    *policy.Policy
	// NewID generates ids for squads without a prior counterpart.
	NewID func() string
}

// Name is "<kind> <letter>" for the i-th squad of a kind: A to Z, then Z1, Z2...
func Name(kind string, i int) string {
	if i < 26 {
		return kind + " " + string(rune('A'+i))
	}
	return kind + " Z" + strconv.Itoa(i-25)
}

// QuotasFrom recovers the quota set that produced squads, in first-seen order.
func QuotasFrom(squads entity.Squads) []Quota {
	var out []Quota
	index := make(map[string]int)
	for _, s := range squads {
		if s.Reserve {
			continue
		}
		i, ok := index[s.Kind]
		if !ok {
			index[s.Kind] = len(out)
			out = append(out, Quota{Kind: s.Kind, Count: 1, Size: s.Size})
			continue
		}
		out[i].Count++
		if s.Size > out[i].Size {
			out[i].Size = s.Size
		}
	}
	return out
}

func Allocate(in Input) entity.Squads {
	pol := in.Policy
	if pol == nil {
		pol = policy.Default()
	}
	newID := in.NewID
	if newID == nil {
		newID = utils.GenerateID
	}

	roster := sortRoster(in.Attendees.Attending(), in.Catalog)
	byID := make(map[string]entity.Attendee, len(roster))
	for _, a := range roster {
		byID[a.ParticipantID] = a
	}

	priorByName := make(map[string]entity.Squad)
	var priorReserve *entity.Squad
	for i, s := range in.Prior {
		if s.Reserve {
			priorReserve = &in.Prior[i]
			continue
		}
		if _, dup := priorByName[s.Name]; !dup {
			priorByName[s.Name] = s
		}
	}

	squads := make(entity.Squads, 0)
	for _, q := range in.Quotas {
		kind := pol.Kind(q.Kind)
		size := q.Size
		if size <= 0 {
			size = kind.DefaultSize
		}
		if size <= 0 {
			size = 1
		}
		for i := 0; i < q.Count; i++ {
			s := entity.Squad{Name: Name(q.Kind, i), Kind: q.Kind, Size: size, Members: []entity.SquadMember{}}
			if prev, ok := priorByName[s.Name]; ok && prev.ID != "" {
				s.ID = prev.ID
			} else {
				s.ID = newID()
			}
			squads = append(squads, s)
		}
	}

	placed := make(map[string]bool)
	for i := range squads {
		prev, ok := priorByName[squads[i].Name]
		if !ok {
			continue
		}
		squads[i].Members = retain(prev.Members, squads[i].Size, byID, placed)
	}

	reserve := entity.Squad{Name: pol.ReserveName, Kind: ReserveKind, Reserve: true, Members: []entity.SquadMember{}}
	if priorReserve != nil {
		for _, m := range priorReserve.Members {
			a, ok := byID[m.ParticipantID]
			if !ok || !m.Pinned || placed[m.ParticipantID] {
				continue
			}
			reserve.Members = append(reserve.Members, refresh(m, a))
			placed[m.ParticipantID] = true
		}
	}

	for i := range squads {
		fill(&squads[i], pol.Kind(squads[i].Kind), roster, placed)
	}

	for _, a := range roster {
		if placed[a.ParticipantID] {
			continue
		}
		reserve.Members = append(reserve.Members, memberFor(a))
		placed[a.ParticipantID] = true
	}

	if len(reserve.Members) > 0 {
		if priorReserve != nil && priorReserve.ID != "" {
			reserve.ID = priorReserve.ID
		} else {
			reserve.ID = newID()
		}
		reserve.Size = len(reserve.Members)
		squads = append(squads, reserve)
	}
	return squads
}

// sortRoster orders attendees by catalog role then sub-role, stable within a group.
func sortRoster(attending []entity.Attendee, catalog entity.RoleCatalog) []entity.Attendee {
	out := append([]entity.Attendee(nil), attending...)
	rank := func(a entity.Attendee) (int, int) {
		if a.PrimaryRole == nil {
			return len(catalog), 0
		}
		for ri, role := range catalog {
			if role.Name != *a.PrimaryRole {
				continue
			}
			if a.SubRole == nil {
				return ri, len(role.SubRoles)
			}
			for si, sub := range role.SubRoles {
				if sub.Name == *a.SubRole {
					return ri, si
				}
			}
			return ri, len(role.SubRoles)
		}
		return len(catalog), 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, si := rank(out[i])
		rj, sj := rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return si < sj
	})
	return out
}

// retain keeps the prior members that still attend. Pinned members always
// stay; the rest stay in prior order while there is room.
func retain(prev []entity.SquadMember, size int, byID map[string]entity.Attendee, placed map[string]bool) []entity.SquadMember {
	pinned := 0
	for _, m := range prev {
		if _, ok := byID[m.ParticipantID]; ok && m.Pinned && !placed[m.ParticipantID] {
			pinned++
		}
	}
	room := size - pinned

	out := make([]entity.SquadMember, 0, len(prev))
	for _, m := range prev {
		a, ok := byID[m.ParticipantID]
		if !ok || placed[m.ParticipantID] {
			continue
		}
		if !m.Pinned {
			if room <= 0 {
				continue
			}
			room--
		}
		out = append(out, refresh(m, a))
		placed[m.ParticipantID] = true
	}
	return out
}

// fill tops up a squad from the roster, one match per rule per pass so
// squads mix classes instead of taking a whole group at once. Each attendee
// counts against the first rule it matches.
func fill(s *entity.Squad, kind policy.Kind, roster []entity.Attendee, placed map[string]bool) {
	counts := make([]int, len(kind.Rules))
	for _, m := range s.Members {
		if ri := firstRule(kind.Rules, m.PrimaryRole, m.SubRole); ri >= 0 {
			counts[ri]++
		}
	}

	for len(s.Members) < s.Size {
		progress := false
		for ri, rule := range kind.Rules {
			if len(s.Members) >= s.Size {
				break
			}
			if rule.Limit > 0 && counts[ri] >= rule.Limit {
				continue
			}
			for _, a := range roster {
				if placed[a.ParticipantID] {
					continue
				}
				if firstRule(kind.Rules, deref(a.PrimaryRole), deref(a.SubRole)) != ri {
					continue
				}
				s.Members = append(s.Members, memberFor(a))
				placed[a.ParticipantID] = true
				counts[ri]++
				progress = true
				break
			}
		}
		if !progress {
			return
		}
	}
}

func firstRule(rules []policy.Rule, primaryRole, subRole string) int {
	if primaryRole == "" {
		return -1
	}
	for i, r := range rules {
		if r.Matches(primaryRole, subRole) {
			return i
		}
	}
	return -1
}

func memberFor(a entity.Attendee) entity.SquadMember {
	m := entity.SquadMember{
		ParticipantID: a.ParticipantID,
		PrimaryRole:   deref(a.PrimaryRole),
		SubRole:       deref(a.SubRole),
		Glyph:         a.Glyph,
	}
	m.AssignedRole = m.SubRole
	if m.AssignedRole == "" {
		m.AssignedRole = m.PrimaryRole
	}
	return m
}

// refresh updates a kept member with the attendee's current selection and
// leaves operator choices (assigned role, pin) alone.
func refresh(m entity.SquadMember, a entity.Attendee) entity.SquadMember {
	m.PrimaryRole = deref(a.PrimaryRole)
	m.SubRole = deref(a.SubRole)
	m.Glyph = a.Glyph
	if m.AssignedRole == "" {
		m.AssignedRole = memberFor(a).AssignedRole
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
