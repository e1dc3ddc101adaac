package api

import (
	"sync"

	"github.com/vignan-placements/examportal/internal/services"
)

// memoryStore is the default in-process registry of tests and results.
// Everything lives in maps guarded by one RWMutex; results keep their
// insertion order per test so ranking ties stay stable.
type memoryStore struct {
	mu        sync.RWMutex
	tests     map[string]*services.Test
	testOrder []string
	results   map[string][]*services.StudentResult
	activeID  string
}

func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tests:   map[string]*services.Test{},
		results: map[string][]*services.StudentResult{},
	}
}

func (s *memoryStore) InsertTest(t *services.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[t.ID]; !ok {
		s.testOrder = append(s.testOrder, t.ID)
	}
	copy := *t
	s.tests[t.ID] = &copy
	return nil
}

func (s *memoryStore) GetTest(id string) (*services.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, nil
	}
	copy := *t
	return &copy, nil
}

func (s *memoryStore) UpdateTest(t *services.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[t.ID]; !ok {
		return nil
	}
	copy := *t
	s.tests[t.ID] = &copy
	return nil
}

func (s *memoryStore) ListTests() ([]*services.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Test, 0, len(s.testOrder))
	for _, id := range s.testOrder {
		if t, ok := s.tests[id]; ok {
			copy := *t
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *memoryStore) ActiveTestID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID, nil
}

func (s *memoryStore) SetActiveTestID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
	return nil
}

// UpsertStudentResult replaces an existing result for the same roll
// number in place, keeping its original position, or appends a new one.
func (s *memoryStore) UpsertStudentResult(testID string, r *services.StudentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *r
	list := s.results[testID]
	for i, existing := range list {
		if existing.RollNo == r.RollNo {
			list[i] = &copy
			return nil
		}
	}
	s.results[testID] = append(list, &copy)
	return nil
}

func (s *memoryStore) ListStudentResults(testID string) ([]*services.StudentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.results[testID]
	out := make([]*services.StudentResult, 0, len(list))
	for _, r := range list {
		copy := *r
		out = append(out, &copy)
	}
	return out, nil
}
