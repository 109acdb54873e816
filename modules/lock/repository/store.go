package repository

import (
	"context"
	"time"

	"go-event-roster/modules/lock/entity"
)

// Store keeps edit locks. Every operation evaluates expiry against the
// caller-supplied now; nothing sweeps expired locks in the background.
type Store interface {
	// Acquire grants or renews the lock for holderID. When another holder has
	// a live lock it returns that lock and false.
	Acquire(ctx context.Context, eventID, holderID string, now time.Time, ttl time.Duration) (entity.EditLock, bool, error)
	// Release drops the lock if holderID holds it; anything else is a no-op.
	Release(ctx context.Context, eventID, holderID string) error
	// Get returns the live lock or nil.
	Get(ctx context.Context, eventID string, now time.Time) (*entity.EditLock, error)
	Clear(ctx context.Context, eventID string) error
}
