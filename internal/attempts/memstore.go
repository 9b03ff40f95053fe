package attempts

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemStore is an in-memory [Store] for tests and single-process deployments
// that do not need persistence. It is safe for concurrent use.
type MemStore struct {
	mu       sync.Mutex
	attempts []Attempt
	nextID   int
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (s *MemStore) Save(_ context.Context, a Attempt) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = strconv.Itoa(s.nextID)
	s.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.attempts = append(s.attempts, a)
	return a, nil
}

func (s *MemStore) Recent(_ context.Context, learnerID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Attempt
	for i := len(s.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if s.attempts[i].LearnerID == learnerID {
			out = append(out, s.attempts[i])
		}
	}
	return out, nil
}

func (s *MemStore) LastForReference(_ context.Context, learnerID, referenceText string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.attempts) - 1; i >= 0; i-- {
		a := s.attempts[i]
		if a.LearnerID == learnerID && a.ReferenceText == referenceText {
			return a, nil
		}
	}
	return Attempt{}, ErrNotFound
}
