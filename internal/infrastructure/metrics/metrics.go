package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics holds the prometheus collectors for the sync subsystem. A
// registerer is injected so tests can use an isolated registry.
type SyncMetrics struct {
	SyncRuns         *prometheus.CounterVec
	SyncDuration     *prometheus.HistogramVec
	PagesFetched     *prometheus.CounterVec
	WebhooksRejected *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// New registers and returns the sync metric collectors.
func New(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invochat_sync_runs_total",
			Help: "Sync runs by platform and terminal result.",
		}, []string{"platform", "result"}),
		SyncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "invochat_sync_duration_seconds",
			Help:    "Wall time of successful sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"platform"}),
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invochat_sync_pages_fetched_total",
			Help: "Remote API pages fetched by platform and resource.",
		}, []string{"platform", "resource"}),
		WebhooksRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invochat_webhooks_rejected_total",
			Help: "Inbound webhooks rejected by reason.",
		}, []string{"platform", "reason"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "invochat_rate_limited_requests_total",
			Help: "Requests rejected by the sliding-window rate limiter.",
		}),
	}
}
