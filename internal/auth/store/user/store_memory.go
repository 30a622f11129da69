package user

import (
	"context"
	"sync"
	"time"

	"zolo-auth/internal/auth/models"
	"zolo-auth/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store implementation. It is a test and
// development double: state resets on restart and is not shared across
// instances. The mutex serializes check-then-insert so concurrent signups
// for the same email cannot both succeed.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	byID    map[int64]*models.User
	nextID  int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[int64]*models.User),
		nextID:  1,
	}
}

func (s *MemoryStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return sentinel.ErrConflict
	}

	u.ID = s.nextID
	s.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	stored := *u
	s.byEmail[u.Email] = &stored
	s.byID[u.ID] = &stored
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id int64, patch models.ProfilePatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Company != nil {
		u.Company = *patch.Company
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, u := range s.byID {
		if u.VerificationToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) MarkVerified(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationToken = ""
	return nil
}

// Count reports the number of stored accounts. Used by tests to assert that
// failed signups leave the store untouched.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
