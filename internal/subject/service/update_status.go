package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"subject-registry/internal/observability"
	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
	"subject-registry/pkg/requestcontext"
)

// UpdateStatus transitions a subject to newStatus under optimistic
// concurrency control.
//
// The guard order is a contract, not an implementation detail — it decides
// which error a caller sees when several conditions are violated at once:
//
//  1. terminal-state guard (CodeTerminalStateMutation), regardless of
//     whether the requested transition would otherwise be legal
//  2. transition-validity guard (CodeInvalidStatusTransition)
//  3. no-op short-circuit: same-status requests return the current record
//     unchanged, with no version bump and no event
//  4. optimistic-concurrency guard at persistence time
//     (CodeConcurrentModification)
//
// On success the version is bumped by exactly one and SubjectStatusChanged
// is emitted, followed by SubjectArchived or SubjectDeleted when the new
// status is terminal.
func (r *Registry) UpdateStatus(ctx context.Context, id domain.SubjectID, newStatus domain.SubjectStatus, expectedVersion int64, reason string) (subject *models.Subject, err error) {
	ctx, span := r.tracer.Start(ctx, "registry.UpdateStatus",
		attribute.String("subject_id", id.String()),
		attribute.String("new_status", newStatus.String()))
	defer func() { observability.End(span, err) }()
	defer r.observe("update_status")()

	if !newStatus.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidStatus, "invalid subject status %q", string(newStatus))
	}

	current, readErr := r.store.FindByID(ctx, id)
	if readErr != nil {
		return nil, wrapReadErr(readErr, id)
	}

	if err = current.EnsureNotTerminal(); err != nil {
		return nil, err
	}
	if newStatus != current.Status {
		if err = current.CanTransitionTo(newStatus); err != nil {
			return nil, err
		}
	}
	if newStatus == current.Status {
		r.logger.Debug("status update is no-op",
			"subject_id", id.String(),
			"status", newStatus.String())
		return current, nil
	}

	oldStatus := current.Status
	next := current.Clone()
	next.ApplyStatus(newStatus, requestcontext.Now(ctx))

	if writeErr := r.store.UpdateIfVersion(ctx, id, expectedVersion, next); writeErr != nil {
		return nil, wrapWriteErr(writeErr, id)
	}

	if err = r.emitCommitted(ctx, events.NewStatusChanged(next, oldStatus, reason)); err != nil {
		return nil, err
	}
	if next.Status.IsTerminal() {
		if err = r.emitCommitted(ctx, events.NewTerminal(next)); err != nil {
			return nil, err
		}
	}

	if r.metrics != nil {
		r.metrics.IncrementStatusChanged(oldStatus.String(), next.Status.String())
	}
	r.logger.Info("subject status updated",
		"subject_id", id.String(),
		"old_status", oldStatus.String(),
		"new_status", next.Status.String())

	return next, nil
}
