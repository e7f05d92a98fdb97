package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"subject-registry/internal/observability"
	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/requestcontext"
)

// UpdateAttributes replaces a subject's entire attribute map (not a merge)
// under optimistic concurrency control. Attributes are validated before
// storage is touched; the terminal-state guard takes priority over the
// concurrency guard. SubjectAttributesUpdated is emitted after a successful
// commit.
//
// Errors: CodeInvalidAttributes, CodeSubjectNotFound,
// CodeTerminalStateMutation, CodeConcurrentModification,
// CodeStorageUnavailable.
func (r *Registry) UpdateAttributes(ctx context.Context, id domain.SubjectID, attrs models.Attributes, expectedVersion int64) (subject *models.Subject, err error) {
	ctx, span := r.tracer.Start(ctx, "registry.UpdateAttributes",
		attribute.String("subject_id", id.String()))
	defer func() { observability.End(span, err) }()
	defer r.observe("update_attributes")()

	if err = attrs.Validate(); err != nil {
		return nil, err
	}

	current, readErr := r.store.FindByID(ctx, id)
	if readErr != nil {
		return nil, wrapReadErr(readErr, id)
	}

	if err = current.EnsureNotTerminal(); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.ApplyAttributes(attrs, requestcontext.Now(ctx))

	if writeErr := r.store.UpdateIfVersion(ctx, id, expectedVersion, next); writeErr != nil {
		return nil, wrapWriteErr(writeErr, id)
	}

	if err = r.emitCommitted(ctx, events.NewAttributesUpdated(next)); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.IncrementAttributesUpdated()
	}
	r.logger.Info("subject attributes updated", "subject_id", id.String())

	return next, nil
}
