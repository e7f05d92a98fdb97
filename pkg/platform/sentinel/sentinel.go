package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyExists: a record with the same id is already stored
// - ErrVersionMismatch: the compare-and-swap precondition failed
// - ErrUnavailable: store or resource temporarily unavailable
//
// For validation errors (bad input, invariant violations), use
// pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrUnavailable     = errors.New("unavailable")
)
