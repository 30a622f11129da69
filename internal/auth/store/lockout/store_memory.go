package lockout

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps lockout records in a mutex-guarded map. The mutex makes
// RecordFailure atomic, matching the Postgres implementation's guarantees.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, identifier string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, identifier string, now, staleBefore time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok || rec.LastFailureAt.Before(staleBefore) {
		rec = &Record{Identifier: identifier}
		s.records[identifier] = rec
		rec.FailureCount = 0
	}
	rec.FailureCount++
	rec.LastFailureAt = now

	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) ApplyLock(_ context.Context, identifier string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		rec = &Record{Identifier: identifier}
		s.records[identifier] = rec
	}
	rec.LockedUntil = &until
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}
