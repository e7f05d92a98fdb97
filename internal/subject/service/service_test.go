package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/models"
	"subject-registry/internal/subject/service"
	"subject-registry/internal/subject/service/mock"
	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
	"subject-registry/pkg/platform/sentinel"
	"subject-registry/pkg/requestcontext"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================
// Justification for unit tests: the orchestrator's guard ordering decides
// which error wins when several preconditions fail at once, and that
// precedence cannot be pinned down through coarse end-to-end flows alone.

type RegistryServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *mock.MockStore
	emitter  *mock.MockEventEmitter
	registry *service.Registry
	ctx      context.Context
	now      time.Time
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mock.NewMockStore(s.ctrl)
	s.emitter = mock.NewMockEventEmitter(s.ctrl)
	s.registry = service.New(s.store, service.WithEmitter(s.emitter))
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *RegistryServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RegistryServiceSuite) storedSubject(status domain.SubjectStatus, version int64) *models.Subject {
	subject, err := models.NewSubject(domain.SubjectTypeUser, models.Attributes{"department": "engineering"}, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	subject.Status = status
	subject.Version = version
	return subject
}

// =============================================================================
// Register Tests
// =============================================================================

func (s *RegistryServiceSuite) TestRegister() {
	s.Run("persists then emits SubjectCreated", func() {
		var emitted events.Event
		gomock.InOrder(
			s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
			s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, e events.Event) error {
					emitted = e
					return nil
				}),
		)

		subject, err := s.registry.Register(s.ctx, domain.SubjectTypeUser, models.Attributes{"department": "engineering"})
		s.Require().NoError(err)

		s.False(subject.ID.IsNil())
		s.Equal(domain.SubjectStatusActive, subject.Status)
		s.Equal(int64(1), subject.Version)
		s.True(subject.CreatedAt.Equal(s.now))
		s.True(subject.CreatedAt.Equal(subject.UpdatedAt))

		s.Equal(events.TypeSubjectCreated, emitted.Type)
		s.Equal(subject.ID, emitted.SubjectID)
	})

	s.Run("invalid type never reaches storage", func() {
		_, err := s.registry.Register(s.ctx, domain.SubjectType("ROBOT"), nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSubjectType))
	})

	s.Run("prohibited attributes never reach storage", func() {
		_, err := s.registry.Register(s.ctx, domain.SubjectTypeUser, models.Attributes{"password": "hunter2"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttributes))
	})

	s.Run("id collision is reported, not retried silently", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyExists)

		_, err := s.registry.Register(s.ctx, domain.SubjectTypeUser, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSubjectIDCollision))
	})

	s.Run("storage failure is wrapped", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		_, err := s.registry.Register(s.ctx, domain.SubjectTypeUser, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
	})

	s.Run("emitter failure after commit is surfaced", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		_, err := s.registry.Register(s.ctx, domain.SubjectTypeUser, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// UpdateStatus Guard Order Tests
// =============================================================================

func (s *RegistryServiceSuite) TestUpdateStatusGuardOrder() {
	id := domain.NewSubjectID()

	s.Run("unknown status value is rejected before any store call", func() {
		_, err := s.registry.UpdateStatus(s.ctx, id, domain.SubjectStatus("PAUSED"), 1, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatus))
	})

	s.Run("missing subject is reported next", func() {
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)

		_, err := s.registry.UpdateStatus(s.ctx, id, domain.SubjectStatusSuspended, 1, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSubjectNotFound))
	})

	s.Run("terminal guard wins over everything that follows", func() {
		archived := s.storedSubject(domain.SubjectStatusArchived, 3)
		s.store.EXPECT().FindByID(gomock.Any(), archived.ID).Return(archived, nil)

		// Stale expected version AND an illegal transition, yet the terminal
		// guard must be the error reported. No persistence attempt happens.
		_, err := s.registry.UpdateStatus(s.ctx, archived.ID, domain.SubjectStatusActive, 99, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalStateMutation))
		s.Equal(archived.ID.String(), dErrors.SubjectOf(err))
	})

	s.Run("same-status request is a no-op with no write and no event", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 2)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)

		subject, err := s.registry.UpdateStatus(s.ctx, active.ID, domain.SubjectStatusActive, 2, "")
		s.Require().NoError(err)
		s.Equal(int64(2), subject.Version)
	})

	s.Run("version conflict at persistence maps to concurrent modification", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 2)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)
		s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(1), gomock.Any()).
			Return(sentinel.ErrVersionMismatch)

		_, err := s.registry.UpdateStatus(s.ctx, active.ID, domain.SubjectStatusSuspended, 1, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConcurrentModification))
	})
}

// =============================================================================
// UpdateStatus Emission Tests
// =============================================================================

func (s *RegistryServiceSuite) TestUpdateStatusEmission() {
	s.Run("non-terminal transition emits exactly one event", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 1)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)

		var persisted *models.Subject
		var emitted []events.Event
		gomock.InOrder(
			s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(1), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ domain.SubjectID, _ int64, next *models.Subject) error {
					persisted = next
					return nil
				}),
			s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, e events.Event) error {
					emitted = append(emitted, e)
					return nil
				}),
		)

		subject, err := s.registry.UpdateStatus(s.ctx, active.ID, domain.SubjectStatusSuspended, 1, "policy review")
		s.Require().NoError(err)

		s.Equal(domain.SubjectStatusSuspended, subject.Status)
		s.Equal(int64(2), subject.Version)
		s.True(subject.UpdatedAt.Equal(s.now))
		s.Equal(persisted.Version, subject.Version)

		s.Require().Len(emitted, 1)
		s.Equal(events.TypeSubjectStatusChanged, emitted[0].Type)
		payload, ok := emitted[0].Payload.(events.StatusChangedPayload)
		s.Require().True(ok)
		s.Equal(domain.SubjectStatusActive, payload.OldStatus)
		s.Equal(domain.SubjectStatusSuspended, payload.NewStatus)
		s.Equal("policy review", payload.Reason)
	})

	s.Run("terminal transition emits status change then the terminal event", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 2)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)
		s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(2), gomock.Any()).Return(nil)

		var emitted []events.Event
		s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context, e events.Event) error {
				emitted = append(emitted, e)
				return nil
			})

		subject, err := s.registry.UpdateStatus(s.ctx, active.ID, domain.SubjectStatusArchived, 2, "retention policy")
		s.Require().NoError(err)
		s.Equal(int64(3), subject.Version)

		s.Require().Len(emitted, 2)
		s.Equal(events.TypeSubjectStatusChanged, emitted[0].Type)
		s.Equal(events.TypeSubjectArchived, emitted[1].Type)
	})

	s.Run("deletion emits SubjectDeleted as the terminal event", func() {
		suspended := s.storedSubject(domain.SubjectStatusSuspended, 4)
		s.store.EXPECT().FindByID(gomock.Any(), suspended.ID).Return(suspended, nil)
		s.store.EXPECT().UpdateIfVersion(gomock.Any(), suspended.ID, int64(4), gomock.Any()).Return(nil)

		var emitted []events.Event
		s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context, e events.Event) error {
				emitted = append(emitted, e)
				return nil
			})

		_, err := s.registry.UpdateStatus(s.ctx, suspended.ID, domain.SubjectStatusDeleted, 4, "gdpr erasure request")
		s.Require().NoError(err)
		s.Equal(events.TypeSubjectDeleted, emitted[1].Type)
	})

	s.Run("request-scoped source and correlation id are stamped onto events", func() {
		ctx := requestcontext.WithSourceSystem(s.ctx, "provisioner")
		ctx = requestcontext.WithRequestID(ctx, "req-42")

		active := s.storedSubject(domain.SubjectStatusActive, 1)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)
		s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(1), gomock.Any()).Return(nil)

		var emitted events.Event
		s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e events.Event) error {
				emitted = e
				return nil
			})

		_, err := s.registry.UpdateStatus(ctx, active.ID, domain.SubjectStatusSuspended, 1, "")
		s.Require().NoError(err)
		s.Equal("provisioner", emitted.Source)
		s.Equal("req-42", emitted.RequestID)
	})
}

// =============================================================================
// UpdateAttributes Tests
// =============================================================================

func (s *RegistryServiceSuite) TestUpdateAttributes() {
	s.Run("invalid attributes never reach storage", func() {
		_, err := s.registry.UpdateAttributes(s.ctx, domain.NewSubjectID(), models.Attributes{"api_key": "k"}, 1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAttributes))
	})

	s.Run("terminal subject rejects attribute changes", func() {
		deleted := s.storedSubject(domain.SubjectStatusDeleted, 5)
		s.store.EXPECT().FindByID(gomock.Any(), deleted.ID).Return(deleted, nil)

		_, err := s.registry.UpdateAttributes(s.ctx, deleted.ID, models.Attributes{"department": "sales"}, 5)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalStateMutation))
	})

	s.Run("replacement is whole-map and emits SubjectAttributesUpdated", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 1)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)

		var emitted events.Event
		gomock.InOrder(
			s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(1), gomock.Any()).Return(nil),
			s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, e events.Event) error {
					emitted = e
					return nil
				}),
		)

		subject, err := s.registry.UpdateAttributes(s.ctx, active.ID, models.Attributes{"team": "payments"}, 1)
		s.Require().NoError(err)

		s.Equal(models.Attributes{"team": "payments"}, subject.Attributes)
		s.Equal(int64(2), subject.Version)
		s.Equal(events.TypeSubjectAttributesUpdated, emitted.Type)
	})

	s.Run("version conflict maps to concurrent modification", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 3)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)
		s.store.EXPECT().UpdateIfVersion(gomock.Any(), active.ID, int64(2), gomock.Any()).
			Return(sentinel.ErrVersionMismatch)

		_, err := s.registry.UpdateAttributes(s.ctx, active.ID, models.Attributes{"team": "payments"}, 2)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConcurrentModification))
	})
}

// =============================================================================
// Read Operation Tests
// =============================================================================

func (s *RegistryServiceSuite) TestGet() {
	s.Run("returns the stored record without any write or event", func() {
		active := s.storedSubject(domain.SubjectStatusActive, 7)
		s.store.EXPECT().FindByID(gomock.Any(), active.ID).Return(active, nil)

		subject, err := s.registry.Get(s.ctx, active.ID)
		s.Require().NoError(err)
		s.Equal(active.ID, subject.ID)
		s.Equal(int64(7), subject.Version)
	})

	s.Run("missing subject maps to not found", func() {
		id := domain.NewSubjectID()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)

		_, err := s.registry.Get(s.ctx, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeSubjectNotFound))
	})

	s.Run("storage failure is wrapped", func() {
		id := domain.NewSubjectID()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, errors.New("connection refused"))

		_, err := s.registry.Get(s.ctx, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
	})
}

func (s *RegistryServiceSuite) TestListIDsByStatus() {
	s.Run("rejects unknown status", func() {
		_, err := s.registry.ListIDsByStatus(s.ctx, domain.SubjectStatus("PAUSED"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatus))
	})

	s.Run("passes through store results", func() {
		want := []domain.SubjectID{domain.NewSubjectID(), domain.NewSubjectID()}
		s.store.EXPECT().ListIDsByStatus(gomock.Any(), domain.SubjectStatusSuspended).Return(want, nil)

		ids, err := s.registry.ListIDsByStatus(s.ctx, domain.SubjectStatusSuspended)
		s.Require().NoError(err)
		s.Equal(want, ids)
	})
}
