package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newSubject(typ domain.SubjectType) *models.Subject {
	subject, err := models.NewSubject(typ, models.Attributes{"department": "engineering"}, time.Now())
	s.Require().NoError(err)
	return subject
}

func (s *MemoryStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds subject by id", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))

		found, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		s.Equal(subject.ID, found.ID)
		s.Equal(subject.Type, found.Type)
		s.Equal(int64(1), found.Version)
	})

	s.Run("rejects duplicate id", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))
		s.Require().ErrorIs(s.store.Create(s.ctx, subject), sentinel.ErrAlreadyExists)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewSubjectID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestCopyIsolation() {
	s.Run("mutating the stored argument does not change the record", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))

		subject.Attributes["department"] = "sales"
		found, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		s.Equal("engineering", found.Attributes["department"])
	})

	s.Run("mutating a returned record does not change the store", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))

		first, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		first.Status = domain.SubjectStatusSuspended
		first.Attributes["department"] = "sales"

		second, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		s.Equal(domain.SubjectStatusActive, second.Status)
		s.Equal("engineering", second.Attributes["department"])
	})
}

func (s *MemoryStoreSuite) TestUpdateIfVersion() {
	s.Run("matching version replaces the record", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))

		next := subject.Clone()
		next.ApplyStatus(domain.SubjectStatusSuspended, time.Now())
		s.Require().NoError(s.store.UpdateIfVersion(s.ctx, subject.ID, 1, next))

		found, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		s.Equal(domain.SubjectStatusSuspended, found.Status)
		s.Equal(int64(2), found.Version)
	})

	s.Run("stale version returns ErrVersionMismatch and leaves the record untouched", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		s.Require().NoError(s.store.Create(s.ctx, subject))

		next := subject.Clone()
		next.ApplyStatus(domain.SubjectStatusSuspended, time.Now())
		s.Require().NoError(s.store.UpdateIfVersion(s.ctx, subject.ID, 1, next))

		stale := subject.Clone()
		stale.ApplyStatus(domain.SubjectStatusDeleted, time.Now())
		err := s.store.UpdateIfVersion(s.ctx, subject.ID, 1, stale)
		s.Require().ErrorIs(err, sentinel.ErrVersionMismatch)

		found, err := s.store.FindByID(s.ctx, subject.ID)
		s.Require().NoError(err)
		s.Equal(domain.SubjectStatusSuspended, found.Status)
		s.Equal(int64(2), found.Version)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		subject := s.newSubject(domain.SubjectTypeUser)
		err := s.store.UpdateIfVersion(s.ctx, subject.ID, 1, subject)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentCompareAndSwap drives many racing updates against one record
// and requires exactly one winner per version.
func (s *MemoryStoreSuite) TestConcurrentCompareAndSwap() {
	subject := s.newSubject(domain.SubjectTypeUser)
	s.Require().NoError(s.store.Create(s.ctx, subject))

	const racers = 32
	results := make(chan error, racers)

	var g errgroup.Group
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			next := subject.Clone()
			next.ApplyStatus(domain.SubjectStatusSuspended, time.Now())
			results <- s.store.UpdateIfVersion(s.ctx, subject.ID, 1, next)
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	close(results)

	var wins, mismatches int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			s.Require().ErrorIs(err, sentinel.ErrVersionMismatch)
			mismatches++
		}
	}
	s.Equal(1, wins)
	s.Equal(racers-1, mismatches)

	found, err := s.store.FindByID(s.ctx, subject.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), found.Version)
}

func (s *MemoryStoreSuite) TestListIDsByStatus() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := func(status domain.SubjectStatus, createdAt time.Time) *models.Subject {
		subject, err := models.NewSubject(domain.SubjectTypeUser, nil, createdAt)
		s.Require().NoError(err)
		subject.Status = status
		s.Require().NoError(s.store.Create(s.ctx, subject))
		return subject
	}

	second := seed(domain.SubjectStatusActive, base.Add(time.Minute))
	first := seed(domain.SubjectStatusActive, base)
	seed(domain.SubjectStatusSuspended, base)

	s.Run("returns only matching subjects in creation order", func() {
		ids, err := s.store.ListIDsByStatus(s.ctx, domain.SubjectStatusActive)
		s.Require().NoError(err)
		s.Equal([]domain.SubjectID{first.ID, second.ID}, ids)
	})

	s.Run("empty result for unmatched status", func() {
		ids, err := s.store.ListIDsByStatus(s.ctx, domain.SubjectStatusArchived)
		s.Require().NoError(err)
		s.Empty(ids)
	})
}
