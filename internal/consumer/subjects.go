package consumer

// Subject constants for the record feed.
// Follow the pattern: {domain}.{resource}
const (
	// SubjectRecordsCreated carries new-record events from the CSV import
	// pipeline.
	SubjectRecordsCreated = "records.created"

	// SubjectRecordsPostprocessing carries post-processing updates enriched
	// with correlation and user identifiers.
	SubjectRecordsPostprocessing = "records.postprocessing"
)

// Queue group names for load-balanced consumers. Workers in the same queue
// group share messages, so each event is processed by one worker.
const (
	QueueRecordConsumers         = "record-consumers"
	QueuePostprocessingConsumers = "postprocessing-consumers"
)
