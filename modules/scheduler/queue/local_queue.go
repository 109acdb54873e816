package queue

import (
	"context"
	"sync"
	"time"

	"go-event-roster/core/clock"
	"go-event-roster/core/logger"

	"github.com/google/uuid"
)

// LocalQueue keeps timers in process. Pending timers are lost on restart and
// rebuilt by the scheduler's recovery pass.
type LocalQueue struct {
	clock clock.Clock

	mu      sync.Mutex
	handler Handler
	seq     uint64
	timers  map[string]localTimer
}

type localTimer struct {
	gen   uint64
	timer clock.Timer
}

func NewLocalQueue(clk clock.Clock) *LocalQueue {
	if clk == nil {
		clk = clock.Real()
	}
	return &LocalQueue{clock: clk, timers: make(map[string]localTimer)}
}

func (q *LocalQueue) SetHandler(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = h
}

func (q *LocalQueue) Schedule(_ context.Context, kind Kind, eventID uuid.UUID, at time.Time) error {
	k := key(kind, eventID)
	delay := at.Sub(q.clock.Now())
	if delay < 0 {
		delay = 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.timers[k]; ok {
		prev.timer.Stop()
	}
	q.seq++
	gen := q.seq
	t := q.clock.AfterFunc(delay, func() { q.fire(k, gen, kind, eventID) })
	q.timers[k] = localTimer{gen: gen, timer: t}
	return nil
}

func (q *LocalQueue) Cancel(_ context.Context, kind Kind, eventID uuid.UUID) error {
	k := key(kind, eventID)

	q.mu.Lock()
	defer q.mu.Unlock()
	if prev, ok := q.timers[k]; ok {
		prev.timer.Stop()
		delete(q.timers, k)
	}
	return nil
}

// Pending reports whether a timer for (kind, event) is waiting to fire.
func (q *LocalQueue) Pending(kind Kind, eventID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.timers[key(kind, eventID)]
	return ok
}

func (q *LocalQueue) fire(k string, gen uint64, kind Kind, eventID uuid.UUID) {
	q.mu.Lock()
	current, ok := q.timers[k]
	if !ok || current.gen != gen {
		// replaced or cancelled after the timer was already running
		q.mu.Unlock()
		return
	}
	delete(q.timers, k)
	h := q.handler
	q.mu.Unlock()

	if h == nil {
		logger.Warn("LocalQueue:fire:NoHandler", "kind", kind, "event_id", eventID.String())
		return
	}
	if err := h(context.Background(), kind, eventID); err != nil {
		logger.Error("LocalQueue:fire", "kind", kind, "event_id", eventID.String(), "error", err)
	}
}
