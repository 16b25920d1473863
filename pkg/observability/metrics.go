package observability

import (
	"net/http"
	"strconv"
	"time"

	pkgerrors "degrees/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "degrees"

// Collector exposes search, store and HTTP metrics to Prometheus.
type Collector struct {
	registry *prometheus.Registry

	searchLatency   *prometheus.HistogramVec
	searchIters     *prometheus.HistogramVec
	journeysFound   *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	rateLimitedHits prometheus.Counter
}

// NewCollector registers every metric on a fresh registry, together with
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		// Labels: operation (discover, random, path), outcome (found, none, error)
		searchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Journey and path search latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation", "outcome"}),

		searchIters: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "iterations",
			Help:      "Queue pops spent per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"operation"}),

		journeysFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "journeys_total",
			Help:      "Journeys returned to callers",
		}, []string{"operation"}),

		storeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Graph store call latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"backend", "operation", "status"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),

		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// 0 closed, 1 half-open, 2 open
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per breaker",
		}, []string{"name"}),

		rateLimitedHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveSearch(operation string, elapsed time.Duration, found, iterations int, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case found == 0:
		outcome = "none"
	}
	c.searchLatency.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
	c.searchIters.WithLabelValues(operation).Observe(float64(iterations))
	if found > 0 {
		c.journeysFound.WithLabelValues(operation).Add(float64(found))
	}
}

func (c *Collector) ObserveStoreOperation(backend, operation string, elapsed time.Duration, err error) {
	c.storeLatency.WithLabelValues(backend, operation, storeStatus(err)).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request. route is the chi route pattern.
func (c *Collector) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetBreakerState publishes a circuit breaker transition.
func (c *Collector) SetBreakerState(name string, state int) {
	c.breakerState.WithLabelValues(name).Set(float64(state))
}

// RateLimited counts one rejected request.
func (c *Collector) RateLimited() { c.rateLimitedHits.Inc() }

// Client errors are answers, not failures of the store.
func storeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pkgerrors.IsNotFound(err), pkgerrors.IsConflict(err), pkgerrors.IsValidation(err):
		return "rejected"
	case pkgerrors.IsUnavailable(err):
		return "unavailable"
	}
	return "error"
}
