// Package models defines the record representations shared across the
// ingestion pipeline and its stores.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the lifecycle status of a phone-number record.
type Status string

const (
	// StatusAvailable is the initial status assigned on creation.
	StatusAvailable Status = "AVAILABLE"
)

// RawEvent is an untyped event as received from the feed. Values are kept
// as strings regardless of their JSON type, matching the upstream producers
// which emit everything as text.
type RawEvent map[string]string

// ParseRawEvent decodes a feed payload into a RawEvent. Scalar values of any
// JSON type are coerced to strings; nested objects or arrays are a decode
// error since no producer emits them.
func ParseRawEvent(data []byte) (RawEvent, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	ev := make(RawEvent, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case string:
			ev[name] = v
		case float64:
			ev[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			ev[name] = strconv.FormatBool(v)
		case nil:
			ev[name] = ""
		default:
			return nil, fmt.Errorf("decode event: field %q has non-scalar value", name)
		}
	}
	return ev, nil
}

// PhoneRecord is the canonical record held by the primary store. At most one
// record per E164 number ever exists; the creation path never updates it.
type PhoneRecord struct {
	E164Number string `json:"e164Number"`
	Country    string `json:"country"`
	State      string `json:"state"`
	Type       string `json:"type"`
	Status     Status `json:"status"`
	Version    int    `json:"version"`
	EventTime  int64  `json:"eventTime"` // milliseconds since epoch
}

// AuditEntry is one immutable row in the audit trail. One entry is appended
// per processed creation or update event. CorrelationID and UserID are only
// present on post-processing updates.
type AuditEntry struct {
	E164Number    string `json:"e164Number"`
	Country       string `json:"country"`
	State         string `json:"state"`
	Type          string `json:"type"`
	Status        Status `json:"status"`
	Version       int    `json:"version"`
	EventTime     int64  `json:"eventTime"`
	CorrelationID string `json:"correlationId,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

// SearchDocument is the denormalized projection indexed for search. It is
// keyed by E164Number and upserted idempotently; it carries no authority and
// can be rebuilt from the audit trail.
type SearchDocument struct {
	E164Number string `json:"e164Number"`
	Country    string `json:"country"`
	State      string `json:"state"`
	Type       string `json:"type"`
	Status     Status `json:"status"`
	Version    int    `json:"version"`
	EventTime  int64  `json:"eventTime"`
}
