package dto

import (
	"time"

	"go-event-roster/modules/lock/entity"
)

type LockStatusResponse struct {
	EventID    string     `json:"event_id"`
	Locked     bool       `json:"locked"`
	HolderID   string     `json:"holder_id,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	HeldByYou  bool       `json:"held_by_you"`
}

func ToLockStatus(eventID string, lock *entity.EditLock, callerID string) *LockStatusResponse {
	out := &LockStatusResponse{EventID: eventID}
	if lock == nil {
		return out
	}
	acquired := lock.AcquiredAt
	expires := lock.ExpiresAt
	out.Locked = true
	out.HolderID = lock.HolderID
	out.AcquiredAt = &acquired
	out.ExpiresAt = &expires
	out.HeldByYou = callerID != "" && callerID == lock.HolderID
	return out
}
