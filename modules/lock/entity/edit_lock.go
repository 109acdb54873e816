package entity

import "time"

// EditLock grants one operator exclusive roster-editing rights over an event.
type EditLock struct {
	EventID    string    `json:"event_id"`
	HolderID   string    `json:"holder_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Live reports whether the lock still binds at now.
func (l *EditLock) Live(now time.Time) bool {
	return l != nil && now.Before(l.ExpiresAt)
}
