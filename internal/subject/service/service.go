// Package service implements the subject registry orchestrator: the
// use-case coordinator for registering subjects and driving their lifecycle.
// Every operation is sequenced validate → fetch → guards (fixed order) →
// build next record → one conditional persist → emit → metric/log → return.
// Guards run strictly before any persistence attempt, persistence happens at
// most once per call, and events are emitted only after a successful commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subject-registry/internal/observability"
	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/metrics"
	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
	"subject-registry/pkg/platform/sentinel"
	"subject-registry/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock

// Store is the persistence collaborator. See internal/subject/store for the
// sentinel-error contract; the compare-and-swap in UpdateIfVersion must be a
// single atomic storage operation.
type Store interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error)
	UpdateIfVersion(ctx context.Context, id domain.SubjectID, expectedVersion int64, subject *models.Subject) error
	ListIDsByStatus(ctx context.Context, status domain.SubjectStatus) ([]domain.SubjectID, error)
}

// EventEmitter is the lifecycle notification collaborator. Emit must not
// return until the event is durably handed over; per-subject ordering and
// at-least-once delivery are the emitter's contract.
type EventEmitter interface {
	Emit(ctx context.Context, event events.Event) error
}

// Registry orchestrates subject registration and lifecycle management. It
// holds no shared mutable state of its own: every operation fetches fresh
// state from the store, so correctness under concurrent callers rests on the
// store's version compare-and-swap.
type Registry struct {
	store   Store
	emitter EventEmitter
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  *observability.Tracer
}

type Option func(r *Registry)

func WithEmitter(emitter EventEmitter) Option {
	return func(r *Registry) {
		r.emitter = emitter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithTracer(t *observability.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

// New constructs a Registry. Without options it emits to an in-memory bus,
// discards logs, records no metrics, and traces to a noop tracer.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.emitter == nil {
		r.emitter = events.NewBus()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.tracer == nil {
		r.tracer = observability.Noop()
	}
	return r
}

// emitCommitted hands an already-committed change to the emitter. The event
// is stamped with the request-scoped source and correlation id. A failure
// here does not roll back the storage write; it is logged and surfaced to
// the caller as an internal error.
func (r *Registry) emitCommitted(ctx context.Context, event events.Event) error {
	event.Source = requestcontext.SourceSystem(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.logger.Error("event emission failed after commit",
			"event_type", string(event.Type),
			"subject_id", event.SubjectID.String(),
			"error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "event emission failed after commit")
	}
	return nil
}

// wrapReadErr translates store errors from the fetch step.
func wrapReadErr(err error, id domain.SubjectID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.WithSubject(dErrors.CodeSubjectNotFound, "subject not found", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to load subject")
}

// wrapWriteErr translates store errors from the conditional update step.
func wrapWriteErr(err error, id domain.SubjectID) error {
	switch {
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.WithSubject(dErrors.CodeConcurrentModification,
			"concurrent modification detected", id.String())
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.WithSubject(dErrors.CodeSubjectNotFound, "subject not found", id.String())
	default:
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to update subject")
	}
}

func (r *Registry) observe(operation string) func() {
	start := time.Now()
	return func() {
		if r.metrics != nil {
			r.metrics.ObserveOperation(operation, start)
		}
	}
}
