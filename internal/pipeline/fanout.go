package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/numline-systems/numline-ingest/internal/metrics"
	"github.com/numline-systems/numline-ingest/internal/models"
	"github.com/numline-systems/numline-ingest/internal/store"
)

// FanoutWriter writes a projection to the sinks in a fixed order: primary
// store first (creation only), then audit trail, then search index. The
// primary must be durable before audit or index reflect the record, and the
// audit trail outranks the rebuildable index. Sink writes are independent; a
// failure is recorded and the remaining sinks are still attempted. There is
// no rollback and no cross-store atomicity.
type FanoutWriter struct {
	primary store.PrimaryStore
	audit   store.AuditStore
	search  store.SearchIndex
}

func NewFanoutWriter(primary store.PrimaryStore, audit store.AuditStore, search store.SearchIndex) *FanoutWriter {
	return &FanoutWriter{
		primary: primary,
		audit:   audit,
		search:  search,
	}
}

// Write fans the projection out to the sinks. The returned results carry one
// entry per attempted sink, in write order.
//
// A *DuplicateError is returned when the primary store reports the key as
// already present: the event lost a creation race after passing the
// existence check, and is a skip, not a failure. No further sinks are
// written in that case.
func (w *FanoutWriter) Write(ctx context.Context, p Projection) ([]SinkResult, error) {
	var results []SinkResult

	if p.Record != nil {
		start := time.Now()
		err := w.primary.PutIfAbsent(ctx, p.Record)
		metrics.SinkWriteDuration.WithLabelValues(string(SinkPrimary)).Observe(time.Since(start).Seconds())

		if errors.Is(err, store.ErrKeyExists) {
			return nil, &DuplicateError{Key: p.Record.E164Number}
		}
		if err != nil {
			err = &SinkError{Sink: SinkPrimary, Err: err}
			metrics.SinkErrors.WithLabelValues(string(SinkPrimary)).Inc()
		}
		results = append(results, SinkResult{Sink: SinkPrimary, Err: err})
	}

	results = append(results, w.writeAudit(ctx, p.Audit))
	results = append(results, w.writeSearch(ctx, p.Doc))

	return results, nil
}

func (w *FanoutWriter) writeAudit(ctx context.Context, entry models.AuditEntry) SinkResult {
	start := time.Now()
	err := w.audit.Append(ctx, entry)
	metrics.SinkWriteDuration.WithLabelValues(string(SinkAudit)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SinkErrors.WithLabelValues(string(SinkAudit)).Inc()
		return SinkResult{Sink: SinkAudit, Err: &SinkError{Sink: SinkAudit, Err: err}}
	}
	return SinkResult{Sink: SinkAudit}
}

func (w *FanoutWriter) writeSearch(ctx context.Context, doc models.SearchDocument) SinkResult {
	start := time.Now()
	err := w.search.Upsert(ctx, doc)
	metrics.SinkWriteDuration.WithLabelValues(string(SinkSearch)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SinkErrors.WithLabelValues(string(SinkSearch)).Inc()
		return SinkResult{Sink: SinkSearch, Err: &SinkError{Sink: SinkSearch, Err: err}}
	}
	return SinkResult{Sink: SinkSearch}
}
