package entity

// SquadMember is an attendee placed in a squad with the role it plays there.
type SquadMember struct {
	ParticipantID string `json:"participant_id"`
	PrimaryRole   string `json:"primary_role,omitempty"`
	SubRole       string `json:"sub_role,omitempty"`
	// AssignedRole is what the squad sheet shows; operators may override it.
	AssignedRole string `json:"assigned_role"`
	Glyph        string `json:"glyph,omitempty"`
	// Pinned marks a member placed by hand; refreshes keep it where it is.
	Pinned bool `json:"pinned,omitempty"`
}

type Squad struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Reserve bool          `json:"reserve,omitempty"`
	Size    int           `json:"size"`
	Members []SquadMember `json:"members"`
}

type Squads []Squad

// FindMember returns the squad and member index holding participantID.
func (s Squads) FindMember(participantID string) (int, int, bool) {
	for i, squad := range s {
		for j, member := range squad.Members {
			if member.ParticipantID == participantID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

func (s Squads) FindByID(id string) (int, bool) {
	for i, squad := range s {
		if squad.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone deep-copies the squads so allocation never aliases stored state.
func (s Squads) Clone() Squads {
	if s == nil {
		return nil
	}
	out := make(Squads, len(s))
	for i, squad := range s {
		out[i] = squad
		out[i].Members = append([]SquadMember(nil), squad.Members...)
	}
	return out
}
