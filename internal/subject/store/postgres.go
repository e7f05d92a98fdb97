package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/platform/sentinel"
)

// pqUniqueViolation is the Postgres error code for unique constraint hits.
const pqUniqueViolation = "23505"

// Postgres persists subjects in a single table with the attributes map as
// JSONB. The optimistic-concurrency precondition is pushed into the UPDATE
// statement itself (WHERE subject_id AND version), so the check-and-write is
// one atomic statement and the lost-update race cannot occur.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, subject *models.Subject) error {
	attrs, err := json.Marshal(subject.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	const query = `
		INSERT INTO subjects (subject_id, subject_type, status, attributes, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		subject.ID.String(),
		subject.Type.String(),
		subject.Status.String(),
		attrs,
		subject.CreatedAt,
		subject.UpdatedAt,
		subject.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error) {
	const query = `
		SELECT subject_id, subject_type, status, attributes, created_at, updated_at, version
		FROM subjects
		WHERE subject_id = $1
	`
	return s.scanSubject(s.db.QueryRowContext(ctx, query, id.String()))
}

// UpdateIfVersion applies the new record only when the stored version still
// matches expectedVersion. Zero rows affected means either the precondition
// failed or the row is gone; a follow-up existence check tells the two
// apart.
func (s *Postgres) UpdateIfVersion(ctx context.Context, id domain.SubjectID, expectedVersion int64, subject *models.Subject) error {
	attrs, err := json.Marshal(subject.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	const query = `
		UPDATE subjects
		SET status = $3, attributes = $4, updated_at = $5, version = $6
		WHERE subject_id = $1 AND version = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		id.String(),
		expectedVersion,
		subject.Status.String(),
		attrs,
		subject.UpdatedAt,
		subject.Version,
	)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subjects WHERE subject_id = $1)`, id.String(),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check subject existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrVersionMismatch
}

func (s *Postgres) ListIDsByStatus(ctx context.Context, status domain.SubjectStatus) ([]domain.SubjectID, error) {
	const query = `
		SELECT subject_id
		FROM subjects
		WHERE status = $1
		ORDER BY created_at, subject_id
	`
	rows, err := s.db.QueryContext(ctx, query, status.String())
	if err != nil {
		return nil, fmt.Errorf("query subjects by status: %w", err)
	}
	defer rows.Close()

	var ids []domain.SubjectID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan subject id: %w", err)
		}
		id, err := domain.ParseSubjectID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse stored subject id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Postgres) scanSubject(row *sql.Row) (*models.Subject, error) {
	var (
		rawID     string
		rawType   string
		rawStatus string
		rawAttrs  []byte
		subject   models.Subject
	)
	err := row.Scan(&rawID, &rawType, &rawStatus, &rawAttrs, &subject.CreatedAt, &subject.UpdatedAt, &subject.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subject: %w", err)
	}
	if subject.ID, err = domain.ParseSubjectID(rawID); err != nil {
		return nil, fmt.Errorf("parse stored subject id %q: %w", rawID, err)
	}
	if subject.Type, err = domain.ParseSubjectType(rawType); err != nil {
		return nil, fmt.Errorf("parse stored subject type %q: %w", rawType, err)
	}
	if subject.Status, err = domain.ParseSubjectStatus(rawStatus); err != nil {
		return nil, fmt.Errorf("parse stored subject status %q: %w", rawStatus, err)
	}
	if err := json.Unmarshal(rawAttrs, &subject.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return &subject, nil
}
