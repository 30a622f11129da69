package store

import (
	"context"
	"sync"
	"time"

	"zolo-auth/internal/contact/models"
)

// MemoryStore keeps submissions in memory. Non-durable; development and
// tests only.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	subs   []*models.Submission
}

func NewMemory() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = s.nextID
	s.nextID++
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	copied := *sub
	s.subs = append(s.subs, &copied)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]*models.Submission, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.subs)

	// Newest first.
	start := total - offset - limit
	end := total - offset
	if end < 0 {
		end = 0
	}
	if start < 0 {
		start = 0
	}

	out := make([]*models.Submission, 0, end-start)
	for i := end - 1; i >= start; i-- {
		copied := *s.subs[i]
		out = append(out, &copied)
	}
	return out, total, nil
}
