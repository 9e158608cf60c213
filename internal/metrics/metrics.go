package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Completion metrics
	completionsTotal   *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	completionRetries  *prometheus.CounterVec
	completionTokens   *prometheus.CounterVec
	jobsActive         *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Completion metrics
	r.completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_completions_total",
			Help: "Total number of completion requests served",
		},
		[]string{"vendor", "status"},
	)
	r.completionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_completion_duration_seconds",
			Help:    "Completion request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"vendor"},
	)
	r.completionRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_completion_retries_total",
			Help: "Total number of transient-error retries",
		},
		[]string{"vendor"},
	)
	r.completionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_completion_tokens_total",
			Help: "Total tokens consumed, by direction",
		},
		[]string{"vendor", "direction"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_jobs_active",
			Help: "Number of active async completion jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.completionsTotal)
	reg.MustRegister(r.completionDuration)
	reg.MustRegister(r.completionRetries)
	reg.MustRegister(r.completionTokens)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCompletion records a served completion and the retries it cost.
// attempts is the number of transport calls; anything past the first
// counts as a retry.
func (r *Registry) RecordCompletion(vendor, status string, attempts int, duration float64) {
	r.completionsTotal.WithLabelValues(vendor, status).Inc()
	r.completionDuration.WithLabelValues(vendor).Observe(duration)
	if attempts > 1 {
		r.completionRetries.WithLabelValues(vendor).Add(float64(attempts - 1))
	}
}

// RecordTokens records token usage for a completion.
func (r *Registry) RecordTokens(vendor string, prompt, completion int) {
	r.completionTokens.WithLabelValues(vendor, "prompt").Add(float64(prompt))
	r.completionTokens.WithLabelValues(vendor, "completion").Add(float64(completion))
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
