package domain

import (
	"github.com/google/uuid"

	dErrors "subject-registry/pkg/domain-errors"
)

// SubjectID is the opaque identifier of a subject. It is a random UUID v4:
// 122 bits of entropy, no embedded type, time, or tenancy information.
//
// Construct via NewSubjectID for fresh records or ParseSubjectID at trust
// boundaries; direct casting bypasses validation.
type SubjectID uuid.UUID

// NewSubjectID returns a fresh random subject id.
func NewSubjectID() SubjectID {
	return SubjectID(uuid.New())
}

// ParseSubjectID constructs a SubjectID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or
// the nil UUID; no other errors are expected.
func ParseSubjectID(s string) (SubjectID, error) {
	if s == "" {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "subject id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "subject id must be a valid UUID")
	}
	if u == uuid.Nil {
		return SubjectID{}, dErrors.New(dErrors.CodeInvalidInput, "subject id cannot be the nil UUID")
	}
	return SubjectID(u), nil
}

func (id SubjectID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero UUID.
func (id SubjectID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText serializes the id as a canonical UUID string, which is how it
// appears in stored documents and event payloads.
func (id SubjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a canonical UUID string, enforcing the same
// validation as ParseSubjectID.
func (id *SubjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
