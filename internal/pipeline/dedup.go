package pipeline

import (
	"context"

	"github.com/numline-systems/numline-ingest/internal/store"
)

// Deduplicator answers whether a canonical record already exists for a key.
// The check is advisory: it runs before mapping so duplicates skip cheaply,
// but the authoritative duplicate signal is the primary store's conditional
// insert during fanout, which closes the check-then-act race.
type Deduplicator struct {
	primary store.PrimaryStore
}

func NewDeduplicator(primary store.PrimaryStore) *Deduplicator {
	return &Deduplicator{primary: primary}
}

func (d *Deduplicator) IsDuplicate(ctx context.Context, key string) (bool, error) {
	return d.primary.Exists(ctx, key)
}
