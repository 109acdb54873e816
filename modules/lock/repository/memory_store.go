package repository

import (
	"context"
	"sync"
	"time"

	"go-event-roster/modules/lock/entity"
)

// MemoryStore is a single-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	locks map[string]entity.EditLock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[string]entity.EditLock)}
}

func (s *MemoryStore) Acquire(_ context.Context, eventID, holderID string, now time.Time, ttl time.Duration) (entity.EditLock, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acquiredAt := now
	if cur, ok := s.locks[eventID]; ok && cur.Live(now) {
		if cur.HolderID != holderID {
			return cur, false, nil
		}
		acquiredAt = cur.AcquiredAt
	}

	lock := entity.EditLock{
		EventID:    eventID,
		HolderID:   holderID,
		AcquiredAt: acquiredAt,
		ExpiresAt:  now.Add(ttl),
	}
	s.locks[eventID] = lock
	return lock, true, nil
}

func (s *MemoryStore) Release(_ context.Context, eventID, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.locks[eventID]; ok && cur.HolderID == holderID {
		delete(s.locks, eventID)
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, eventID string, now time.Time) (*entity.EditLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.locks[eventID]
	if !ok || !cur.Live(now) {
		return nil, nil
	}
	return &cur, nil
}

func (s *MemoryStore) Clear(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, eventID)
	return nil
}
