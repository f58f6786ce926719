package pipeline

import (
	"time"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// EventKind distinguishes the two inbound event shapes.
type EventKind string

const (
	KindCreation EventKind = "creation"
	KindUpdate   EventKind = "update"
)

// Projection bundles the sink-specific representations built from one event.
// Record is nil for update events: updates never touch the primary store.
type Projection struct {
	Record *models.PhoneRecord
	Audit  models.AuditEntry
	Doc    models.SearchDocument
}

// Map projects a raw event into its sink representations. It is pure: the
// processing time is an argument so both handlers stamp eventTime the same
// way and tests control it. Both paths share this single projection so the
// creation and update representations cannot drift apart.
func Map(kind EventKind, ev models.RawEvent, now time.Time) (Projection, error) {
	eventTime := now.UnixMilli()

	base := models.PhoneRecord{
		E164Number: ev[FieldE164Number],
		Country:    ev[FieldCountry],
		State:      ev[FieldState],
		Type:       ev[FieldType],
		Status:     models.StatusAvailable,
		Version:    1,
		EventTime:  eventTime,
	}

	p := Projection{
		Audit: models.AuditEntry{
			E164Number: base.E164Number,
			Country:    base.Country,
			State:      base.State,
			Type:       base.Type,
			Status:     base.Status,
			Version:    base.Version,
			EventTime:  eventTime,
		},
		Doc: models.SearchDocument{
			E164Number: base.E164Number,
			Country:    base.Country,
			State:      base.State,
			Type:       base.Type,
			Status:     base.Status,
			Version:    base.Version,
			EventTime:  eventTime,
		},
	}

	switch kind {
	case KindCreation:
		rec := base
		p.Record = &rec
	case KindUpdate:
		for _, field := range []string{FieldE164Number, FieldCountry, FieldState, FieldType, FieldCorrelationID, FieldUserID} {
			if _, ok := ev[field]; !ok {
				return Projection{}, &MappingError{Field: field}
			}
		}
		p.Audit.CorrelationID = ev[FieldCorrelationID]
		p.Audit.UserID = ev[FieldUserID]
	}

	return p, nil
}
