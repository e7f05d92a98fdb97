package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subject-registry/internal/subject/models"
	"subject-registry/pkg/domain"
)

func newTestSubject(t *testing.T) *models.Subject {
	t.Helper()
	subject, err := models.NewSubject(domain.SubjectTypeUser, models.Attributes{"department": "engineering"}, time.Now())
	require.NoError(t, err)
	return subject
}

func TestBusOrderingAndLog(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	subject := newTestSubject(t)

	require.NoError(t, bus.Emit(ctx, NewCreated(subject)))

	old := subject.Status
	subject.ApplyStatus(domain.SubjectStatusSuspended, time.Now())
	require.NoError(t, bus.Emit(ctx, NewStatusChanged(subject, old, "policy review")))

	log := bus.Events()
	require.Len(t, log, 2)
	assert.Equal(t, TypeSubjectCreated, log[0].Type)
	assert.Equal(t, TypeSubjectStatusChanged, log[1].Type)
	assert.NotEqual(t, log[0].ID, log[1].ID)
}

func TestBusEventsFor(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	first := newTestSubject(t)
	second := newTestSubject(t)

	require.NoError(t, bus.Emit(ctx, NewCreated(first)))
	require.NoError(t, bus.Emit(ctx, NewCreated(second)))
	require.NoError(t, bus.Emit(ctx, NewAttributesUpdated(first)))

	events := bus.EventsFor(first.ID)
	require.Len(t, events, 2)
	assert.Equal(t, TypeSubjectCreated, events[0].Type)
	assert.Equal(t, TypeSubjectAttributesUpdated, events[1].Type)
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	subject := newTestSubject(t)

	var seen []Type
	unsubscribe := bus.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
	})

	require.NoError(t, bus.Emit(ctx, NewCreated(subject)))
	unsubscribe()
	require.NoError(t, bus.Emit(ctx, NewAttributesUpdated(subject)))

	assert.Equal(t, []Type{TypeSubjectCreated}, seen)
}

func TestNewTerminalPicksEventType(t *testing.T) {
	subject := newTestSubject(t)

	subject.Status = domain.SubjectStatusArchived
	assert.Equal(t, TypeSubjectArchived, NewTerminal(subject).Type)

	subject.Status = domain.SubjectStatusDeleted
	assert.Equal(t, TypeSubjectDeleted, NewTerminal(subject).Type)
}

func TestEventPayloads(t *testing.T) {
	subject := newTestSubject(t)

	t.Run("created carries a snapshot, not an alias", func(t *testing.T) {
		event := NewCreated(subject)
		payload, ok := event.Payload.(CreatedPayload)
		require.True(t, ok)

		subject.Attributes["department"] = "sales"
		assert.Equal(t, "engineering", payload.Attributes["department"])
	})

	t.Run("status changed records both sides of the transition", func(t *testing.T) {
		old := subject.Status
		subject.ApplyStatus(domain.SubjectStatusSuspended, time.Now())
		event := NewStatusChanged(subject, old, "fraud hold")

		payload, ok := event.Payload.(StatusChangedPayload)
		require.True(t, ok)
		assert.Equal(t, domain.SubjectStatusActive, payload.OldStatus)
		assert.Equal(t, domain.SubjectStatusSuspended, payload.NewStatus)
		assert.Equal(t, "fraud hold", payload.Reason)
	})
}
