package pipeline

// Sink identifies one of the three write targets.
type Sink string

const (
	SinkPrimary Sink = "primary"
	SinkAudit   Sink = "audit"
	SinkSearch  Sink = "search"
)

// OutcomeKind is the terminal state of one event's processing.
type OutcomeKind string

const (
	// OutcomeDone means the event reached the fanout. It covers full
	// success and partial sink failure; inspect Sinks to tell them apart.
	OutcomeDone OutcomeKind = "done"

	// OutcomeRejected means the event failed validation or mapping. No
	// store was written.
	OutcomeRejected OutcomeKind = "rejected"

	// OutcomeSkipped means a canonical record for the key already exists.
	// No store was written.
	OutcomeSkipped OutcomeKind = "skipped"
)

// SinkResult records the result of one sink write within a fanout.
type SinkResult struct {
	Sink Sink
	Err  error
}

// Outcome is returned for every handled event. The pipeline never retries
// and never drops an error silently; redelivery decisions belong to the
// caller, based on this value.
type Outcome struct {
	Kind  OutcomeKind
	Key   string
	Err   error        // rejection or skip cause, nil for Done
	Sinks []SinkResult // per-sink detail, only for Done
}

// Failed reports whether any sink write in a Done outcome failed.
func (o Outcome) Failed() bool {
	for _, s := range o.Sinks {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// FailedSinks returns the sinks whose write failed.
func (o Outcome) FailedSinks() []Sink {
	var sinks []Sink
	for _, s := range o.Sinks {
		if s.Err != nil {
			sinks = append(sinks, s.Sink)
		}
	}
	return sinks
}
