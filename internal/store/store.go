// Package store defines the sink interfaces consumed by the ingestion
// pipeline. Implementations live in the subpackages; the pipeline only
// depends on these contracts so tests can swap in fakes.
package store

import (
	"context"
	"errors"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// ErrKeyExists is returned by PrimaryStore.PutIfAbsent when a record for the
// key is already present. It is the store's own duplicate signal, so two
// concurrent creations for the same key cannot both land.
var ErrKeyExists = errors.New("record already exists")

// PrimaryStore is the source of truth for canonical phone records.
type PrimaryStore interface {
	// Exists reports whether a record for the key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// PutIfAbsent stores the record only if no record for its key exists,
	// returning ErrKeyExists otherwise.
	PutIfAbsent(ctx context.Context, rec *models.PhoneRecord) error
}

// AuditStore is the append-only audit trail. Entries are never updated,
// merged or deleted.
type AuditStore interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

// SearchIndex holds the read-optimized projection of the latest state per
// key. Upsert is idempotent: re-indexing the same document leaves the index
// unchanged.
type SearchIndex interface {
	Upsert(ctx context.Context, doc models.SearchDocument) error
}
