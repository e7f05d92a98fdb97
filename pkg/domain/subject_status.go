package domain

import dErrors "subject-registry/pkg/domain-errors"

// SubjectStatus is the lifecycle status of a subject.
//
// ARCHIVED and DELETED are terminal: once reached, no further status or
// attribute mutation is permitted. DELETED is a status value, not a removal;
// physical erasure is a storage-layer concern.
type SubjectStatus string

// Supported subject statuses.
const (
	SubjectStatusActive    SubjectStatus = "ACTIVE"
	SubjectStatusSuspended SubjectStatus = "SUSPENDED"
	SubjectStatusArchived  SubjectStatus = "ARCHIVED"
	SubjectStatusDeleted   SubjectStatus = "DELETED"
)

// statusTransitions is the single source of truth for legal transitions.
// Same-status requests are not listed; callers treat them as no-ops, which
// is distinct from a table lookup.
var statusTransitions = map[SubjectStatus]map[SubjectStatus]bool{
	SubjectStatusActive: {
		SubjectStatusSuspended: true,
		SubjectStatusArchived:  true,
		SubjectStatusDeleted:   true,
	},
	SubjectStatusSuspended: {
		SubjectStatusActive:   true,
		SubjectStatusArchived: true,
		SubjectStatusDeleted:  true,
	},
	SubjectStatusArchived: {},
	SubjectStatusDeleted:  {},
}

// InitialStatus is the status every subject is created with.
func InitialStatus() SubjectStatus {
	return SubjectStatusActive
}

// ParseSubjectStatus constructs a SubjectStatus from external input.
//
// Errors: returns CodeInvalidStatus when the value is empty or outside the
// closed set; no other errors are expected.
func ParseSubjectStatus(s string) (SubjectStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "subject status cannot be empty")
	}
	st := SubjectStatus(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidStatus, "invalid subject status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s SubjectStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether the status permits no further transitions.
func (s SubjectStatus) IsTerminal() bool {
	return s == SubjectStatusArchived || s == SubjectStatusDeleted
}

// CanTransitionTo reports whether the transition table permits moving from
// this status to the target. Same-status requests return false here; the
// orchestrator short-circuits them as no-ops before consulting the table.
func (s SubjectStatus) CanTransitionTo(to SubjectStatus) bool {
	return statusTransitions[s][to]
}

func (s SubjectStatus) String() string {
	return string(s)
}
