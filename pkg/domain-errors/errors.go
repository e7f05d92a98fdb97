// Package domainerrors provides coded errors for the subject registry.
//
// Services raise these from orchestration calls so callers can branch on the
// error kind without string matching. Stores return sentinel errors instead
// (pkg/platform/sentinel); the service layer translates them into coded
// errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a domain error.
type Code string

const (
	// CodeInvalidSubjectType covers subject types outside the closed enum.
	CodeInvalidSubjectType Code = "INVALID_SUBJECT_TYPE"
	// CodeInvalidStatus covers status values outside the closed enum.
	CodeInvalidStatus Code = "INVALID_STATUS"
	// CodeInvalidAttributes covers prohibited keys and non-primitive values.
	CodeInvalidAttributes Code = "INVALID_ATTRIBUTES"
	// CodeSubjectNotFound means no record exists for the given subject id.
	CodeSubjectNotFound Code = "SUBJECT_NOT_FOUND"
	// CodeSubjectIDCollision means storage already holds the generated id.
	CodeSubjectIDCollision Code = "SUBJECT_ID_COLLISION"
	// CodeTerminalStateMutation means a mutation was attempted on an
	// archived or deleted subject.
	CodeTerminalStateMutation Code = "TERMINAL_STATE_MUTATION"
	// CodeInvalidStatusTransition means the requested transition is not in
	// the legal table and is not a same-status no-op.
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	// CodeConcurrentModification means the version precondition failed at
	// persistence time.
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION_CONFLICT"
	// CodeStorageUnavailable covers collaborator failures not otherwise
	// classified.
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// CodeInvalidInput covers malformed input caught at trust boundaries
	// (empty ids, unparsable UUIDs).
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInvariantViolation covers constructor and entity invariant
	// failures.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	// CodeInternal covers unexpected failures with no better code.
	CodeInternal Code = "INTERNAL"
)

// Error carries a code, a human-readable message, and optionally the subject
// the violation applies to.
type Error struct {
	Code      Code
	Message   string
	SubjectID string
	cause     error
}

func (e *Error) Error() string {
	if e.SubjectID != "" {
		return fmt.Sprintf("%s: %s (subject %s)", e.Code, e.Message, e.SubjectID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSubject builds a coded error tagged with the violated subject's id.
func WithSubject(code Code, message, subjectID string) error {
	return &Error{Code: code, Message: message, SubjectID: subjectID}
}

// Wrap attaches a code and message to an underlying error while keeping it
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when the chain carries no code. Used for best-effort error
// classification when closing traces.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// SubjectOf returns the subject id of the outermost coded error that carries
// one, or the empty string.
func SubjectOf(err error) string {
	var de *Error
	for errors.As(err, &de) {
		if de.SubjectID != "" {
			return de.SubjectID
		}
		err = de.cause
		if err == nil {
			return ""
		}
	}
	return ""
}
