package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	messagesSentTotal  *prometheus.CounterVec
	conversationsTotal prometheus.Counter
	mirrorFailures     *prometheus.CounterVec
	liveFeedsTotal     *prometheus.CounterVec
	mediaRejected      *prometheus.CounterVec
	mediaLatency       prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "messenger_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		messagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_messages_sent_total",
			Help: "Total number of messages accepted for delivery, by message type.",
		}, []string{"type"})

		conversationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messenger_conversations_created_total",
			Help: "Total number of conversations created.",
		})

		mirrorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_mirror_write_failures_total",
			Help: "Summary mirror writes that failed and left the two participants diverged.",
		}, []string{"side"})

		liveFeedsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_live_feeds_total",
			Help: "Live feed subscriptions opened, by feed kind.",
		}, []string{"kind"})

		mediaRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messenger_media_rejected_total",
			Help: "Media uploads rejected before reaching the blob store.",
		}, []string{"reason"})

		mediaLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "messenger_media_upload_seconds",
			Help:    "Latency distribution for media uploads.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			messagesSentTotal, conversationsTotal, mirrorFailures,
			liveFeedsTotal, mediaRejected, mediaLatency,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// MessagesSent exposes the per-type counter for sent messages.
func MessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesSentTotal
}

// ConversationsCreated exposes the counter for created conversations.
func ConversationsCreated() prometheus.Counter {
	RegisterMetrics()
	return conversationsTotal
}

// MirrorWriteFailures exposes the counter for failed summary mirror writes.
func MirrorWriteFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return mirrorFailures
}

// LiveFeeds exposes the counter for opened live feed subscriptions.
func LiveFeeds() *prometheus.CounterVec {
	RegisterMetrics()
	return liveFeedsTotal
}

// MediaRejected exposes the counter for rejected media uploads.
func MediaRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return mediaRejected
}

// MediaUploadLatency exposes the histogram for media upload latency.
func MediaUploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return mediaLatency
}
