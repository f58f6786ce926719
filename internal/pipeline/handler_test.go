package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numline-systems/numline-ingest/internal/models"
)

func TestCreationHandler_NewRecord(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.creationHandler()

	outcome := h.Handle(context.Background(), creationEvent())

	assert.Equal(t, OutcomeDone, outcome.Kind)
	assert.Equal(t, "+911234567890", outcome.Key)
	assert.False(t, outcome.Failed())

	rec, ok := sinks.primary.records["+911234567890"]
	require.True(t, ok)
	assert.Equal(t, models.StatusAvailable, rec.Status)
	assert.Equal(t, 1, rec.Version)

	assert.Len(t, sinks.audit.entries, 1)
	assert.Len(t, sinks.search.docs, 1)
}

func TestCreationHandler_IdempotentCreation(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.creationHandler()
	ctx := context.Background()

	first := h.Handle(ctx, creationEvent())
	assert.Equal(t, OutcomeDone, first.Kind)

	second := h.Handle(ctx, creationEvent())
	assert.Equal(t, OutcomeSkipped, second.Kind)

	var dup *DuplicateError
	require.True(t, errors.As(second.Err, &dup))
	assert.Equal(t, "+911234567890", dup.Key)

	// Store states unchanged after the second call
	assert.Len(t, sinks.primary.records, 1)
	assert.Len(t, sinks.audit.entries, 1)
	assert.Len(t, sinks.search.docs, 1)
}

func TestCreationHandler_RejectedEventTouchesNoStore(t *testing.T) {
	tests := []struct {
		name string
		ev   models.RawEvent
	}{
		{name: "wrong field count", ev: models.RawEvent{"country": "IN"}},
		{
			name: "bad key format",
			ev: models.RawEvent{
				"e164Number": "12345", "country": "IN",
				"state": "KA", "type": "mobile",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sinks := newSinkSet()
			h := sinks.creationHandler()

			outcome := h.Handle(context.Background(), tt.ev)

			assert.Equal(t, OutcomeRejected, outcome.Kind)

			var verr *ValidationError
			assert.True(t, errors.As(outcome.Err, &verr))

			assert.Zero(t, sinks.primary.existsCalls)
			assert.Zero(t, sinks.primary.putCalls)
			assert.Zero(t, sinks.audit.calls)
			assert.Zero(t, sinks.search.calls)
		})
	}
}

func TestCreationHandler_LostRaceReportsSkip(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.creationHandler()

	// Another worker creates the record between the existence check and
	// the conditional insert.
	h.dedup = NewDeduplicator(&racingPrimary{inner: sinks.primary})

	outcome := h.Handle(context.Background(), creationEvent())

	assert.Equal(t, OutcomeSkipped, outcome.Kind)
	var dup *DuplicateError
	require.True(t, errors.As(outcome.Err, &dup))

	// The racing write landed; this event added nothing.
	assert.Len(t, sinks.primary.records, 1)
	assert.Zero(t, sinks.audit.calls)
	assert.Zero(t, sinks.search.calls)
}

func TestCreationHandler_ExistenceCheckFailure(t *testing.T) {
	sinks := newSinkSet()
	sinks.primary.existsErr = errors.New("redis timeout")
	h := sinks.creationHandler()

	outcome := h.Handle(context.Background(), creationEvent())

	// Handled, with a failed primary sink and no writes anywhere.
	assert.Equal(t, OutcomeDone, outcome.Kind)
	assert.True(t, outcome.Failed())
	assert.Equal(t, []Sink{SinkPrimary}, outcome.FailedSinks())
	assert.Zero(t, sinks.primary.putCalls)
	assert.Zero(t, sinks.audit.calls)
	assert.Zero(t, sinks.search.calls)
}

func TestCreationHandler_PartialFailureIsTerminal(t *testing.T) {
	sinks := newSinkSet()
	sinks.audit.err = errors.New("insert failed")
	h := sinks.creationHandler()

	outcome := h.Handle(context.Background(), creationEvent())

	assert.Equal(t, OutcomeDone, outcome.Kind)
	assert.True(t, outcome.Failed())
	assert.Equal(t, []Sink{SinkAudit}, outcome.FailedSinks())

	// Primary write retained, search still attempted
	assert.Len(t, sinks.primary.records, 1)
	assert.Len(t, sinks.search.docs, 1)
}

func TestUpdateHandler_IndependentOfCanonicalRecord(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.updateHandler()

	// No canonical record exists for the key.
	outcome := h.Handle(context.Background(), updateEvent())

	assert.Equal(t, OutcomeDone, outcome.Kind)
	assert.False(t, outcome.Failed())

	// Audit and index written, primary never consulted.
	require.Len(t, sinks.audit.entries, 1)
	assert.Equal(t, "abc123", sinks.audit.entries[0].CorrelationID)
	assert.Equal(t, "user1", sinks.audit.entries[0].UserID)
	assert.Len(t, sinks.search.docs, 1)
	assert.Zero(t, sinks.primary.existsCalls)
	assert.Zero(t, sinks.primary.putCalls)
}

func TestUpdateHandler_MissingFieldRejected(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.updateHandler()

	ev := updateEvent()
	delete(ev, "correlationId")

	outcome := h.Handle(context.Background(), ev)

	assert.Equal(t, OutcomeRejected, outcome.Kind)

	var merr *MappingError
	require.True(t, errors.As(outcome.Err, &merr))
	assert.Equal(t, "correlationId", merr.Field)

	assert.Zero(t, sinks.audit.calls)
	assert.Zero(t, sinks.search.calls)
}

func TestUpdateHandler_ReprocessingIsIdempotentOnIndex(t *testing.T) {
	sinks := newSinkSet()
	h := sinks.updateHandler()
	ctx := context.Background()

	h.Handle(ctx, updateEvent())
	h.Handle(ctx, updateEvent())

	// One document per key however many times the event replays; the
	// audit trail records each processing.
	assert.Len(t, sinks.search.docs, 1)
	assert.Len(t, sinks.audit.entries, 2)
}

// racingPrimary reports keys as absent so the caller always passes the
// existence check, then lets the real conditional insert race ahead.
type racingPrimary struct {
	inner *fakePrimary
}

func (r *racingPrimary) Exists(ctx context.Context, key string) (bool, error) {
	// Simulate the competing worker winning right after the check.
	r.inner.records[key] = models.PhoneRecord{E164Number: key}
	return false, nil
}

func (r *racingPrimary) PutIfAbsent(ctx context.Context, rec *models.PhoneRecord) error {
	return r.inner.PutIfAbsent(ctx, rec)
}
