package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event consumption metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numline_ingest_events_total",
			Help: "Total number of events consumed, by subject and outcome",
		},
		[]string{"subject", "outcome"},
	)

	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numline_ingest_decode_errors_total",
			Help: "Total number of events whose payload could not be decoded",
		},
		[]string{"subject"},
	)

	// Sink metrics
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "numline_ingest_sink_errors_total",
			Help: "Total number of failed sink writes",
		},
		[]string{"sink"},
	)

	SinkWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "numline_ingest_sink_write_duration_seconds",
			Help:    "Duration of individual sink writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)
)
