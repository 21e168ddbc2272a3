package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request latency is tracked in seconds with the default buckets; the
// translate and query histograms use millisecond buckets instead because a
// model round trip and a local statement live on different scales.
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_http_requests_total",
			Help: "HTTP requests by method, route, and status.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	gateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_gate_decisions_total",
			Help: "Gate verdicts by outcome. Rejections carry the rejection reason.",
		},
		[]string{"outcome", "reason"},
	)
	gateLimitRewritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_gate_limit_rewrites_total",
			Help: "Statements whose row limit the gate added or lowered.",
		},
	)
	rateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_ratelimit_denied_total",
			Help: "Requests denied by the sliding-window rate limiter.",
		},
	)
	translateLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_translate_latency_ms",
			Help:    "Model translation latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"provider"},
	)
	queryLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_latency_ms",
			Help:    "Approved statement execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)
	historyArchivesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_history_archives_total",
			Help: "Completed history archive uploads.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		gateDecisionsTotal,
		gateLimitRewritesTotal,
		rateLimitDeniedTotal,
		translateLatencyMs,
		queryLatencyMs,
		historyArchivesTotal,
	)
}

func ObserveGateAccepted(limitRewritten bool) {
	gateDecisionsTotal.WithLabelValues("accepted", "").Inc()
	if limitRewritten {
		gateLimitRewritesTotal.Inc()
	}
}

func ObserveGateRejected(reason string) {
	gateDecisionsTotal.WithLabelValues("rejected", reason).Inc()
}

func IncrementRateLimitDenied() {
	rateLimitDeniedTotal.Inc()
}

func ObserveTranslateLatency(provider string, elapsed time.Duration) {
	translateLatencyMs.WithLabelValues(provider).Observe(float64(elapsed.Milliseconds()))
}

func ObserveQueryLatency(elapsed time.Duration) {
	queryLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementHistoryArchives() {
	historyArchivesTotal.Inc()
}
