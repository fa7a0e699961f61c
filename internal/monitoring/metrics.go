package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	ServiceOutcomes    *prometheus.CounterVec
	ServiceDuration    *prometheus.HistogramVec
	AssessmentsTotal   *prometheus.CounterVec
	TrustScore         prometheus.Histogram
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the metrics with reg. A nil reg uses a fresh registry,
// which keeps tests from colliding on the global one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ServiceOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_service_outcomes_total",
			Help: "Analysis service call outcomes.",
		}, []string{"service", "status"}), // status: success, failed, timed_out, skipped
		ServiceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustlens_service_duration_seconds",
			Help:    "Duration of attempted analysis service calls.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
		}, []string{"service"}),
		AssessmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_assessments_total",
			Help: "Assessment requests by result.",
		}, []string{"result"}), // ok, invalid_key, wrong_mode, validation, all_failed
		TrustScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustlens_trust_score",
			Help:    "Distribution of produced trust scores.",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlens_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustlens_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

// ObserveService records one service outcome
func (m *Metrics) ObserveService(service, status string, elapsed time.Duration, attempted bool) {
	m.ServiceOutcomes.WithLabelValues(service, status).Inc()
	if attempted {
		m.ServiceDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

// ObserveAssessment records the result of one assessment request
func (m *Metrics) ObserveAssessment(result string, score int) {
	m.AssessmentsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.TrustScore.Observe(float64(score))
	}
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
