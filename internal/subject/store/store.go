// Package store provides subject persistence. Implementations must satisfy
// the same contract: durability before acknowledgment, consistent reads, and
// an atomic compare-and-swap on the record version for updates. Correctness
// under concurrent callers rests entirely on that CAS; the service layer
// never does read-modify-write without it.
package store

import (
	"context"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
)

// Store is interface-driven to keep the registry logic testable and to allow
// swapping in-memory, Postgres, or Redis persistence without rewiring
// business code.
//
// Error contract (pkg/platform/sentinel):
//   - Create returns ErrAlreadyExists when the id is already stored
//   - FindByID returns ErrNotFound when no record exists
//   - UpdateIfVersion returns ErrVersionMismatch when the stored version
//     differs from expectedVersion, and ErrNotFound when the record is gone;
//     the check-and-write must be a single atomic storage operation
type Store interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error)
	UpdateIfVersion(ctx context.Context, id domain.SubjectID, expectedVersion int64, subject *models.Subject) error
	ListIDsByStatus(ctx context.Context, status domain.SubjectStatus) ([]domain.SubjectID, error)
}
