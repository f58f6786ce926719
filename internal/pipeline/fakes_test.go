package pipeline

import (
	"context"

	"github.com/numline-systems/numline-ingest/internal/models"
	"github.com/numline-systems/numline-ingest/internal/store"
)

// In-memory sink fakes with injectable failures.

type fakePrimary struct {
	records     map[string]models.PhoneRecord
	existsErr   error
	putErr      error
	existsCalls int
	putCalls    int
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{records: make(map[string]models.PhoneRecord)}
}

func (f *fakePrimary) Exists(ctx context.Context, key string) (bool, error) {
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.records[key]
	return ok, nil
}

func (f *fakePrimary) PutIfAbsent(ctx context.Context, rec *models.PhoneRecord) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.records[rec.E164Number]; ok {
		return store.ErrKeyExists
	}
	f.records[rec.E164Number] = *rec
	return nil
}

type fakeAudit struct {
	entries []models.AuditEntry
	err     error
	calls   int
}

func (f *fakeAudit) Append(ctx context.Context, entry models.AuditEntry) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeSearch struct {
	docs  map[string]models.SearchDocument
	err   error
	calls int
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{docs: make(map[string]models.SearchDocument)}
}

func (f *fakeSearch) Upsert(ctx context.Context, doc models.SearchDocument) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.docs[doc.E164Number] = doc
	return nil
}

type sinkSet struct {
	primary *fakePrimary
	audit   *fakeAudit
	search  *fakeSearch
}

func newSinkSet() sinkSet {
	return sinkSet{
		primary: newFakePrimary(),
		audit:   &fakeAudit{},
		search:  newFakeSearch(),
	}
}

func (s sinkSet) fanout() *FanoutWriter {
	return NewFanoutWriter(s.primary, s.audit, s.search)
}

func (s sinkSet) creationHandler() *CreationHandler {
	return NewCreationHandler(NewValidator(), NewDeduplicator(s.primary), s.fanout())
}

func (s sinkSet) updateHandler() *UpdateHandler {
	return NewUpdateHandler(s.fanout())
}
