package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/platform/sentinel"
)

// Redis persists each subject as a JSON document under subject:{id} and
// maintains one set per status for ListIDsByStatus. Create and the version
// compare-and-swap run as Lua scripts so the precondition check and the
// write are a single atomic server-side operation.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`)

// casScript compares the version embedded in the stored document before
// replacing it, and moves the id between status index sets when the status
// changed. Returns -1 when the record is gone, 0 on version mismatch.
var casScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
	return -1
end
local doc = cjson.decode(cur)
if tonumber(doc['version']) ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
if KEYS[2] ~= KEYS[3] then
	redis.call('SMOVE', KEYS[2], KEYS[3], ARGV[3])
end
return 1
`)

func subjectKey(id domain.SubjectID) string {
	return "subject:" + id.String()
}

func statusKey(status domain.SubjectStatus) string {
	return "subjects:status:" + status.String()
}

func (s *Redis) Create(ctx context.Context, subject *models.Subject) error {
	doc, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	created, err := createScript.Run(ctx, s.client,
		[]string{subjectKey(subject.ID), statusKey(subject.Status)},
		doc, subject.ID.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	if created == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *Redis) FindByID(ctx context.Context, id domain.SubjectID) (*models.Subject, error) {
	raw, err := s.client.Get(ctx, subjectKey(id)).Bytes()
	if err == redis.Nil {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	var subject models.Subject
	if err := json.Unmarshal(raw, &subject); err != nil {
		return nil, fmt.Errorf("unmarshal subject: %w", err)
	}
	return &subject, nil
}

func (s *Redis) UpdateIfVersion(ctx context.Context, id domain.SubjectID, expectedVersion int64, subject *models.Subject) error {
	doc, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	swapped, err := casScript.Run(ctx, s.client,
		[]string{subjectKey(id), statusKey(current.Status), statusKey(subject.Status)},
		expectedVersion, doc, id.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	switch swapped {
	case -1:
		return sentinel.ErrNotFound
	case 0:
		return sentinel.ErrVersionMismatch
	}
	return nil
}

func (s *Redis) ListIDsByStatus(ctx context.Context, status domain.SubjectStatus) ([]domain.SubjectID, error) {
	members, err := s.client.SMembers(ctx, statusKey(status)).Result()
	if err != nil {
		return nil, fmt.Errorf("list subjects by status: %w", err)
	}
	sort.Strings(members)
	ids := make([]domain.SubjectID, 0, len(members))
	for _, member := range members {
		id, err := domain.ParseSubjectID(member)
		if err != nil {
			return nil, fmt.Errorf("parse stored subject id %q: %w", member, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
