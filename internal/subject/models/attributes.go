package models

import (
	"reflect"
	"strings"

	dErrors "subject-registry/pkg/domain-errors"
)

// Attributes is the free-form, non-sensitive key-value map carried by a
// subject. Values must be primitives (text, number, boolean); keys matching
// a prohibited term are rejected at validation time.
type Attributes map[string]any

// prohibitedKeyTerms lists terms that must never appear in an attribute key,
// compared case-insensitively with contains semantics.
//
// The list is the union of the credential-only terms and the broader
// role/tenancy terms: attributes are structural identity data, so both
// credentials and authorization/tenancy data are out of scope here.
var prohibitedKeyTerms = []string{
	"password",
	"passwd",
	"token",
	"api_key",
	"api_secret",
	"credential",
	"secret",
	"private_key",
	"ssn",
	"credit_card",
	"card_number",
	"cvv",
	"pin",
	"role",
	"permission",
	"tenant",
	"manager",
}

// Validate enforces the attribute constraints: no prohibited keys, no
// non-primitive or nil values. A nil or empty map is valid. Pure predicate,
// no side effects.
//
// Errors: CodeInvalidAttributes on the first violation found.
func (a Attributes) Validate() error {
	for key, value := range a {
		lower := strings.ToLower(key)
		for _, term := range prohibitedKeyTerms {
			if strings.Contains(lower, term) {
				return dErrors.Newf(dErrors.CodeInvalidAttributes,
					"prohibited attribute key %q: credential, role, and tenancy data must not be stored in subject attributes", key)
			}
		}
		if value == nil {
			return dErrors.Newf(dErrors.CodeInvalidAttributes, "attribute %q must not be nil", key)
		}
		if !isPrimitive(value) {
			return dErrors.Newf(dErrors.CodeInvalidAttributes,
				"attribute %q has non-primitive type %T: only text, number, and boolean are permitted", key, value)
		}
	}
	return nil
}

// isPrimitive accepts strings, booleans, and any numeric kind. Pointers,
// maps, slices, and structs (including time.Time) are rejected.
func isPrimitive(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Clone returns an independent copy. Values are primitives, so a shallow
// copy of the map is a deep copy of the data.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
