// Package events defines the lifecycle notification channel for subjects.
// Emitters are append-only: the registry hands an event over after a
// successful commit and awaits acknowledgment; delivery to subscribers is
// the emitter's concern (at-least-once, ordered per subject).
package events

import (
	"time"

	"github.com/google/uuid"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
)

// Type enumerates the lifecycle event kinds.
type Type string

const (
	TypeSubjectCreated           Type = "SubjectCreated"
	TypeSubjectStatusChanged     Type = "SubjectStatusChanged"
	TypeSubjectAttributesUpdated Type = "SubjectAttributesUpdated"
	TypeSubjectArchived          Type = "SubjectArchived"
	TypeSubjectDeleted           Type = "SubjectDeleted"
)

// Event is the envelope shared by all lifecycle notifications.
type Event struct {
	ID        uuid.UUID        `json:"event_id"`
	Type      Type             `json:"event_type"`
	SubjectID domain.SubjectID `json:"subject_id"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Payload   any              `json:"payload"`
}

// CreatedPayload carries the full initial record snapshot.
type CreatedPayload struct {
	SubjectID   domain.SubjectID     `json:"subject_id"`
	SubjectType domain.SubjectType   `json:"subject_type"`
	Status      domain.SubjectStatus `json:"status"`
	Attributes  models.Attributes    `json:"attributes"`
	CreatedAt   time.Time            `json:"created_at"`
}

// StatusChangedPayload carries the old and new status plus the optional
// caller-supplied reason.
type StatusChangedPayload struct {
	SubjectID domain.SubjectID     `json:"subject_id"`
	OldStatus domain.SubjectStatus `json:"old_status"`
	NewStatus domain.SubjectStatus `json:"new_status"`
	Reason    string               `json:"reason,omitempty"`
	ChangedAt time.Time            `json:"changed_at"`
}

// AttributesUpdatedPayload carries the replacement attribute map.
type AttributesUpdatedPayload struct {
	SubjectID  domain.SubjectID `json:"subject_id"`
	Attributes models.Attributes `json:"attributes"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// TerminalPayload is the convenience payload for SubjectArchived and
// SubjectDeleted.
type TerminalPayload struct {
	SubjectID domain.SubjectID `json:"subject_id"`
	At        time.Time        `json:"at"`
}

// NewCreated builds the SubjectCreated event for a freshly persisted record.
func NewCreated(subject *models.Subject) Event {
	return newEvent(TypeSubjectCreated, subject.ID, subject.CreatedAt, CreatedPayload{
		SubjectID:   subject.ID,
		SubjectType: subject.Type,
		Status:      subject.Status,
		Attributes:  subject.Attributes.Clone(),
		CreatedAt:   subject.CreatedAt,
	})
}

// NewStatusChanged builds the SubjectStatusChanged event for a committed
// transition.
func NewStatusChanged(subject *models.Subject, oldStatus domain.SubjectStatus, reason string) Event {
	return newEvent(TypeSubjectStatusChanged, subject.ID, subject.UpdatedAt, StatusChangedPayload{
		SubjectID: subject.ID,
		OldStatus: oldStatus,
		NewStatus: subject.Status,
		Reason:    reason,
		ChangedAt: subject.UpdatedAt,
	})
}

// NewAttributesUpdated builds the SubjectAttributesUpdated event.
func NewAttributesUpdated(subject *models.Subject) Event {
	return newEvent(TypeSubjectAttributesUpdated, subject.ID, subject.UpdatedAt, AttributesUpdatedPayload{
		SubjectID:  subject.ID,
		Attributes: subject.Attributes.Clone(),
		UpdatedAt:  subject.UpdatedAt,
	})
}

// NewTerminal builds the SubjectArchived or SubjectDeleted convenience
// event matching the subject's (terminal) status.
func NewTerminal(subject *models.Subject) Event {
	t := TypeSubjectArchived
	if subject.Status == domain.SubjectStatusDeleted {
		t = TypeSubjectDeleted
	}
	return newEvent(t, subject.ID, subject.UpdatedAt, TerminalPayload{
		SubjectID: subject.ID,
		At:        subject.UpdatedAt,
	})
}

func newEvent(t Type, subjectID domain.SubjectID, ts time.Time, payload any) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		SubjectID: subjectID,
		Timestamp: ts,
		Payload:   payload,
	}
}
