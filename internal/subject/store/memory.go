package store

import (
	"context"
	"sort"
	"sync"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/platform/sentinel"
)

// InMemory keeps subjects in a mutex-guarded map. It is the default backend
// and the deterministic test double; it intentionally favors clarity over
// performance.
type InMemory struct {
	mu       sync.RWMutex
	subjects map[domain.SubjectID]*models.Subject
}

func NewInMemory() *InMemory {
	return &InMemory{subjects: make(map[domain.SubjectID]*models.Subject)}
}

func (s *InMemory) Create(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subject.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.subjects[subject.ID] = subject.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if subject, ok := s.subjects[id]; ok {
		return subject.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// UpdateIfVersion performs the compare-and-swap under the write lock: the
// version check and the replacement are a single atomic step, so two
// concurrent updates carrying the same expected version see exactly one
// success and one ErrVersionMismatch.
func (s *InMemory) UpdateIfVersion(_ context.Context, id domain.SubjectID, expectedVersion int64, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.subjects[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	s.subjects[id] = subject.Clone()
	return nil
}

func (s *InMemory) ListIDsByStatus(_ context.Context, status domain.SubjectStatus) ([]domain.SubjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Subject
	for _, subject := range s.subjects {
		if subject.Status == status {
			matched = append(matched, subject)
		}
	}
	// Stable order: oldest first, id as tiebreaker.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	ids := make([]domain.SubjectID, 0, len(matched))
	for _, subject := range matched {
		ids = append(ids, subject.ID)
	}
	return ids, nil
}

// Clear removes all records. Test helper.
func (s *InMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = make(map[domain.SubjectID]*models.Subject)
}
