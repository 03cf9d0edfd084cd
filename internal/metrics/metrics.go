package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for RemoteRequests.
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

var (
	// RemoteRequests counts platform API calls by operation and outcome.
	RemoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "field_analyzer",
		Name:      "remote_requests_total",
		Help:      "Platform API requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	// FacetFailures counts usage facets that failed and were reported as empty.
	FacetFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "field_analyzer",
		Name:      "facet_failures_total",
		Help:      "Usage facets that failed and were reported as empty or N/A.",
	}, []string{"facet"})

	// FieldFailures counts fields whose whole gather failed inside a batch.
	FieldFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "field_analyzer",
		Name:      "field_failures_total",
		Help:      "Fields whose usage could not be gathered at all.",
	})
)
