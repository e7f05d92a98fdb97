package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"subject-registry/internal/observability"
	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
)

// Get returns the subject for the given id. Read-only: no version bump, no
// event emission.
//
// Errors: CodeSubjectNotFound, CodeStorageUnavailable.
func (r *Registry) Get(ctx context.Context, id domain.SubjectID) (subject *models.Subject, err error) {
	ctx, span := r.tracer.Start(ctx, "registry.Get",
		attribute.String("subject_id", id.String()))
	defer func() { observability.End(span, err) }()
	defer r.observe("get")()

	subject, readErr := r.store.FindByID(ctx, id)
	if readErr != nil {
		return nil, wrapReadErr(readErr, id)
	}

	if r.metrics != nil {
		r.metrics.IncrementLookups()
	}
	return subject, nil
}

// ListIDsByStatus returns the ids of all subjects currently in the given
// status. Auxiliary read; no event emission.
//
// Errors: CodeInvalidStatus, CodeStorageUnavailable.
func (r *Registry) ListIDsByStatus(ctx context.Context, status domain.SubjectStatus) (ids []domain.SubjectID, err error) {
	ctx, span := r.tracer.Start(ctx, "registry.ListIDsByStatus",
		attribute.String("status", status.String()))
	defer func() { observability.End(span, err) }()

	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidStatus, "invalid subject status %q", string(status))
	}

	ids, listErr := r.store.ListIDsByStatus(ctx, status)
	if listErr != nil {
		return nil, dErrors.Wrap(listErr, dErrors.CodeStorageUnavailable, "failed to list subjects by status")
	}
	return ids, nil
}
