package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	gradingRequestsTotal  *prometheus.CounterVec
	examinerFailuresTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grader_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_grading_requests_total",
			Help: "Grading pipeline runs by subject, question type and outcome.",
		}, []string{"subject", "question_type", "outcome"})

		examinerFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_examiner_failures_total",
			Help: "Per-examiner fallback activations by failure reason.",
		}, []string{"examiner", "reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingRequestsTotal,
			examinerFailuresTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingRequests exposes the counter for grading pipeline runs. Degraded
// runs are labelled separately so transient AI outages are visible to
// monitoring rather than hidden inside well-shaped responses.
func GradingRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRequestsTotal
}

// ExaminerFailures exposes the counter for per-examiner fallbacks.
func ExaminerFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return examinerFailuresTotal
}
