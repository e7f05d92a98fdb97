package domain

import dErrors "subject-registry/pkg/domain-errors"

// SubjectType is the structural classification of a subject. It is a
// structural category, not a business-domain one, and is immutable after
// creation.
//
// Usage: construct via ParseSubjectType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type SubjectType string

// Supported subject types.
const (
	SubjectTypeUser           SubjectType = "USER"
	SubjectTypeServiceAccount SubjectType = "SERVICE_ACCOUNT"
	SubjectTypeAPIClient      SubjectType = "API_CLIENT"
	SubjectTypeSystemProcess  SubjectType = "SYSTEM_PROCESS"
)

// validSubjectTypes is the single source of truth for valid subject types.
var validSubjectTypes = map[SubjectType]bool{
	SubjectTypeUser:           true,
	SubjectTypeServiceAccount: true,
	SubjectTypeAPIClient:      true,
	SubjectTypeSystemProcess:  true,
}

// ParseSubjectType constructs a SubjectType from external input.
//
// Errors: returns CodeInvalidSubjectType when the value is empty or outside
// the closed set; no other errors are expected.
func ParseSubjectType(s string) (SubjectType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidSubjectType, "subject type cannot be empty")
	}
	t := SubjectType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidSubjectType, "invalid subject type %q", s)
	}
	return t, nil
}

// IsValid checks if the type is one of the supported enum values.
func (t SubjectType) IsValid() bool {
	return validSubjectTypes[t]
}

func (t SubjectType) String() string {
	return string(t)
}
