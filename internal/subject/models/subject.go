package models

import (
	"time"

	"subject-registry/pkg/domain"
	dErrors "subject-registry/pkg/domain-errors"
)

// Subject is the aggregate root for a registered identity subject.
//
// Invariants:
//   - ID is assigned once and never changes
//   - Type is immutable after construction
//   - CreatedAt is immutable after construction
//   - Version starts at 1 and increases by exactly 1 per accepted mutation
//   - Once Status is ARCHIVED or DELETED, no field may change again
//   - Attributes never contain a prohibited key or non-primitive value
type Subject struct {
	ID         domain.SubjectID     `json:"subject_id"`
	Type       domain.SubjectType   `json:"subject_type"`
	Status     domain.SubjectStatus `json:"status"`
	Attributes Attributes           `json:"attributes"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Version    int64                `json:"version"`
}

// NewSubject constructs a fully-invariant subject record: fresh random id,
// initial status, version 1, created_at == updated_at == now, and a
// defensive copy of the attribute map so the caller's copy cannot later
// mutate stored state.
//
// Errors: CodeInvalidSubjectType for types outside the closed set;
// CodeInvalidAttributes propagated from attribute validation.
func NewSubject(typ domain.SubjectType, attrs Attributes, now time.Time) (*Subject, error) {
	if !typ.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidSubjectType, "invalid subject type %q", string(typ))
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	return &Subject{
		ID:         domain.NewSubjectID(),
		Type:       typ,
		Status:     domain.InitialStatus(),
		Attributes: attrs.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}, nil
}

// Clone returns an independent copy of the record. Stores hand out and
// accept clones so callers can never alias stored state.
func (s *Subject) Clone() *Subject {
	out := *s
	out.Attributes = s.Attributes.Clone()
	return &out
}

// EnsureNotTerminal is the terminal-state guard, highest priority in the
// guard evaluation order. It rejects every mutation on an archived or
// deleted subject regardless of what the mutation would otherwise do.
func (s *Subject) EnsureNotTerminal() error {
	if s.Status.IsTerminal() {
		return dErrors.WithSubject(dErrors.CodeTerminalStateMutation,
			"cannot mutate subject in terminal state "+s.Status.String(), s.ID.String())
	}
	return nil
}

// CanTransitionTo validates the requested status change against the
// transition table. Same-status requests are the caller's no-op case and
// must be short-circuited before calling this.
func (s *Subject) CanTransitionTo(to domain.SubjectStatus) error {
	if !s.Status.CanTransitionTo(to) {
		return dErrors.WithSubject(dErrors.CodeInvalidStatusTransition,
			"invalid status transition "+s.Status.String()+" -> "+to.String(), s.ID.String())
	}
	return nil
}

// ApplyStatus transitions the subject and bumps the version. Call
// EnsureNotTerminal and CanTransitionTo first; this performs no validation.
func (s *Subject) ApplyStatus(to domain.SubjectStatus, now time.Time) {
	s.Status = to
	s.UpdatedAt = now
	s.Version++
}

// ApplyAttributes replaces the entire attribute map (not a merge) and bumps
// the version. The map is defensively copied.
func (s *Subject) ApplyAttributes(attrs Attributes, now time.Time) {
	s.Attributes = attrs.Clone()
	s.UpdatedAt = now
	s.Version++
}
