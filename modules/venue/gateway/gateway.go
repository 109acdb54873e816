// Package gateway talks to the external discussion venue (a chat bridge).
package gateway

import (
	"context"
	"errors"

	"go-event-roster/modules/venue/view"
)

// ErrVenueNotFound is returned when the venue no longer exists on the far side.
var ErrVenueNotFound = errors.New("venue not found")

// Gateway is the venue boundary. Member calls are idempotent: adding a
// present member or removing an absent one succeeds.
type Gateway interface {
	CreateVenue(ctx context.Context, title string) (string, error)
	AddMember(ctx context.Context, venueID, participantID string) error
	RemoveMember(ctx context.Context, venueID, participantID string) error
	CloseVenue(ctx context.Context, venueID string) error
	PostRosterSnapshot(ctx context.Context, venueID string, roster view.RosterView) (string, error)
	UpdateRosterSnapshot(ctx context.Context, venueID, messageID string, roster view.RosterView) error
}
