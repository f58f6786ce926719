package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// CreationHandler processes new-record events:
// validate, check for a duplicate, project, fan out. Every event terminates
// in exactly one outcome; nothing is retried internally and no error escapes
// as a panic or is swallowed into a log line.
type CreationHandler struct {
	validator *Validator
	dedup     *Deduplicator
	fanout    *FanoutWriter
	now       func() time.Time
}

func NewCreationHandler(validator *Validator, dedup *Deduplicator, fanout *FanoutWriter) *CreationHandler {
	return &CreationHandler{
		validator: validator,
		dedup:     dedup,
		fanout:    fanout,
		now:       time.Now,
	}
}

func (h *CreationHandler) Handle(ctx context.Context, ev models.RawEvent) Outcome {
	if err := h.validator.Validate(ev); err != nil {
		return Outcome{Kind: OutcomeRejected, Key: ev[FieldE164Number], Err: err}
	}

	key := ev[FieldE164Number]

	exists, err := h.dedup.IsDuplicate(ctx, key)
	if err != nil {
		// The existence check itself failed, so nothing was written. The
		// event counts as handled with a failed primary sink; the caller
		// decides whether to redeliver.
		return Outcome{
			Kind: OutcomeDone,
			Key:  key,
			Sinks: []SinkResult{{
				Sink: SinkPrimary,
				Err:  &SinkError{Sink: SinkPrimary, Err: fmt.Errorf("existence check: %w", err)},
			}},
		}
	}
	if exists {
		return Outcome{Kind: OutcomeSkipped, Key: key, Err: &DuplicateError{Key: key}}
	}

	p, err := Map(KindCreation, ev, h.now())
	if err != nil {
		return Outcome{Kind: OutcomeRejected, Key: key, Err: err}
	}

	results, err := h.fanout.Write(ctx, p)
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			// Lost a concurrent creation race between the existence check
			// and the conditional insert.
			return Outcome{Kind: OutcomeSkipped, Key: key, Err: dup}
		}
		return Outcome{Kind: OutcomeDone, Key: key, Sinks: []SinkResult{{Sink: SinkPrimary, Err: err}}}
	}

	return Outcome{Kind: OutcomeDone, Key: key, Sinks: results}
}

// UpdateHandler processes post-processing update events: project, fan out to
// audit and index. No existence check and no primary-store write; an update
// for a key without a canonical record is still audited and indexed.
type UpdateHandler struct {
	fanout *FanoutWriter
	now    func() time.Time
}

func NewUpdateHandler(fanout *FanoutWriter) *UpdateHandler {
	return &UpdateHandler{
		fanout: fanout,
		now:    time.Now,
	}
}

func (h *UpdateHandler) Handle(ctx context.Context, ev models.RawEvent) Outcome {
	key := ev[FieldE164Number]

	p, err := Map(KindUpdate, ev, h.now())
	if err != nil {
		return Outcome{Kind: OutcomeRejected, Key: key, Err: err}
	}

	results, err := h.fanout.Write(ctx, p)
	if err != nil {
		// Unreachable for updates (no primary write), kept for symmetry.
		return Outcome{Kind: OutcomeDone, Key: key, Err: err}
	}

	return Outcome{Kind: OutcomeDone, Key: key, Sinks: results}
}
