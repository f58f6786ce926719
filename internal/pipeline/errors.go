package pipeline

import "fmt"

// ValidationError rejects a malformed or incomplete creation event before
// any store is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// DuplicateError marks an event whose key already has a canonical record.
// The event is skipped, not failed.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string {
	return "duplicate record: " + e.Key
}

// MappingError rejects an event missing a field required by one of the
// target representations.
type MappingError struct {
	Field string
}

func (e *MappingError) Error() string {
	return "missing required field: " + e.Field
}

// SinkError captures a failed write to one sink. It never aborts writes to
// the remaining sinks in the same fanout.
type SinkError struct {
	Sink Sink
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
