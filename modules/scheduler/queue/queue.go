// Package queue holds the timer backends behind the lifecycle scheduler.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOpen  Kind = "open"
	KindClose Kind = "close"
)

// Handler runs when a timer fires. The returned error is only logged; failed
// fires are never retried by the queue.
type Handler func(ctx context.Context, kind Kind, eventID uuid.UUID) error

// TimerQueue holds at most one pending timer per (kind, event). Scheduling
// again replaces the pending one; a target in the past fires right away.
type TimerQueue interface {
	Schedule(ctx context.Context, kind Kind, eventID uuid.UUID, at time.Time) error
	Cancel(ctx context.Context, kind Kind, eventID uuid.UUID) error
	SetHandler(h Handler)
}

func key(kind Kind, eventID uuid.UUID) string {
	return string(kind) + ":" + eventID.String()
}
