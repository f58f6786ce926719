package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numline-systems/numline-ingest/internal/models"
	"github.com/numline-systems/numline-ingest/internal/pipeline"
)

type captureHandler struct {
	events  []models.RawEvent
	outcome pipeline.Outcome
}

func (h *captureHandler) Handle(ctx context.Context, ev models.RawEvent) pipeline.Outcome {
	h.events = append(h.events, ev)
	return h.outcome
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func payload(t *testing.T, ev map[string]string) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestConsumer_ProcessRoutesCreationSubject(t *testing.T) {
	creation := &captureHandler{outcome: pipeline.Outcome{Kind: pipeline.OutcomeDone, Key: "+911234567890"}}
	update := &captureHandler{}
	c := New(nil, creation, update, discardLogger())

	data := payload(t, map[string]string{
		"e164Number": "+911234567890",
		"country":    "IN",
		"state":      "KA",
		"type":       "mobile",
	})

	outcome := c.Process(context.Background(), SubjectRecordsCreated, data)

	assert.Equal(t, pipeline.OutcomeDone, outcome.Kind)
	require.Len(t, creation.events, 1)
	assert.Equal(t, "+911234567890", creation.events[0]["e164Number"])
	assert.Empty(t, update.events)
}

func TestConsumer_ProcessRoutesUpdateSubject(t *testing.T) {
	creation := &captureHandler{}
	update := &captureHandler{outcome: pipeline.Outcome{Kind: pipeline.OutcomeDone, Key: "+911234567890"}}
	c := New(nil, creation, update, discardLogger())

	data := payload(t, map[string]string{
		"e164Number":    "+911234567890",
		"country":       "IN",
		"state":         "KA",
		"type":          "mobile",
		"correlationId": "abc123",
		"userId":        "user1",
	})

	c.Process(context.Background(), SubjectRecordsPostprocessing, data)

	assert.Empty(t, creation.events)
	require.Len(t, update.events, 1)
	assert.Equal(t, "abc123", update.events[0]["correlationId"])
}

func TestConsumer_ProcessRejectsUndecodablePayload(t *testing.T) {
	creation := &captureHandler{}
	update := &captureHandler{}
	c := New(nil, creation, update, discardLogger())

	outcome := c.Process(context.Background(), SubjectRecordsCreated, []byte("not json"))

	assert.Equal(t, pipeline.OutcomeRejected, outcome.Kind)

	var verr *pipeline.ValidationError
	assert.True(t, errors.As(outcome.Err, &verr))

	// Neither handler sees a payload that never decoded.
	assert.Empty(t, creation.events)
	assert.Empty(t, update.events)
}

func TestConsumer_ProcessReportsSkips(t *testing.T) {
	creation := &captureHandler{outcome: pipeline.Outcome{
		Kind: pipeline.OutcomeSkipped,
		Key:  "+911234567890",
		Err:  &pipeline.DuplicateError{Key: "+911234567890"},
	}}
	c := New(nil, creation, &captureHandler{}, discardLogger())

	data := payload(t, map[string]string{
		"e164Number": "+911234567890",
		"country":    "IN",
		"state":      "KA",
		"type":       "mobile",
	})

	outcome := c.Process(context.Background(), SubjectRecordsCreated, data)

	assert.Equal(t, pipeline.OutcomeSkipped, outcome.Kind)
	require.Len(t, creation.events, 1)
}

func TestConsumer_ProcessReportsSinkFailures(t *testing.T) {
	creation := &captureHandler{outcome: pipeline.Outcome{
		Kind: pipeline.OutcomeDone,
		Key:  "+911234567890",
		Sinks: []pipeline.SinkResult{
			{Sink: pipeline.SinkPrimary},
			{Sink: pipeline.SinkAudit, Err: &pipeline.SinkError{Sink: pipeline.SinkAudit, Err: errors.New("insert failed")}},
			{Sink: pipeline.SinkSearch},
		},
	}}
	c := New(nil, creation, &captureHandler{}, discardLogger())

	data := payload(t, map[string]string{
		"e164Number": "+911234567890",
		"country":    "IN",
		"state":      "KA",
		"type":       "mobile",
	})

	outcome := c.Process(context.Background(), SubjectRecordsCreated, data)

	assert.Equal(t, pipeline.OutcomeDone, outcome.Kind)
	assert.True(t, outcome.Failed())
	assert.Equal(t, []pipeline.Sink{pipeline.SinkAudit}, outcome.FailedSinks())
}
