package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"subject-registry/internal/observability"
	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
	"subject-registry/pkg/platform/sentinel"
	"subject-registry/pkg/requestcontext"
)

// Register creates and persists a new subject with the given type and
// attributes. The record starts ACTIVE at version 1. The SubjectCreated
// event is emitted only after the record is durably stored.
//
// Errors: CodeInvalidSubjectType, CodeInvalidAttributes,
// CodeSubjectIDCollision (the generated id was already present — handled,
// not assumed impossible), CodeStorageUnavailable.
func (r *Registry) Register(ctx context.Context, typ domain.SubjectType, attrs models.Attributes) (subject *models.Subject, err error) {
	ctx, span := r.tracer.Start(ctx, "registry.Register",
		attribute.String("subject_type", typ.String()))
	defer func() { observability.End(span, err) }()
	defer r.observe("register")()

	subject, err = models.NewSubject(typ, attrs, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if storeErr := r.store.Create(ctx, subject); storeErr != nil {
		if errors.Is(storeErr, sentinel.ErrAlreadyExists) {
			return nil, dErrors.WithSubject(dErrors.CodeSubjectIDCollision,
				"generated subject id already exists", subject.ID.String())
		}
		return nil, dErrors.Wrap(storeErr, dErrors.CodeStorageUnavailable, "failed to store subject")
	}

	if err = r.emitCommitted(ctx, events.NewCreated(subject)); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.IncrementRegistered(subject.Type.String())
	}
	r.logger.Info("subject registered",
		"subject_id", subject.ID.String(),
		"subject_type", subject.Type.String())

	return subject, nil
}
