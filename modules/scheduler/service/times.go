package service

import (
	"time"

	"go-event-roster/modules/event/entity"
)

// OpenAt is when the venue of e should open.
func OpenAt(e *entity.Event) time.Time {
	return e.StartAt.Add(-e.LeadTime())
}

// CloseAt is one minute past the first local midnight after end + 24h, in
// the event's timezone.
func CloseAt(e *entity.Event) time.Time {
	loc := e.Location()
	later := e.EndAt.In(loc).AddDate(0, 0, 1)
	y, m, d := later.Date()
	return time.Date(y, m, d+1, 0, 1, 0, 0, loc)
}
