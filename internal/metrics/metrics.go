package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	SessionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_session_resolutions_total",
			Help: "Session resolutions by resulting state",
		},
		[]string{"state"},
	)

	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_route_decisions_total",
			Help: "Route authorizer decisions",
		},
		[]string{"decision"},
	)

	OrderSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_order_submissions_total",
			Help: "Order submissions by result",
		},
		[]string{"result"},
	)

	SubmissionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submission_failures_total",
			Help: "Order submission failures by pipeline stage",
		},
		[]string{"stage"},
	)

	OrphanedArtifacts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_orphaned_artifacts_total",
			Help: "Artifacts uploaded to the object store but never referenced by an order",
		},
	)

	SignedURLFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_signed_url_failures_total",
			Help: "Signed URL generation failures during order enrichment",
		},
	)
)
