package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
)

const namespace = "counsel"

// Collector records pipeline and HTTP metrics. It implements graph.Observer.
type Collector struct {
	turnsTotal          *prometheus.CounterVec
	turnDuration        prometheus.Histogram
	refinements         prometheus.Histogram
	collaboratorCalls   *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ graph.Observer = (*Collector)(nil)

func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		turnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of completed conversation turns",
		}, []string{"outcome"}),
		turnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Duration of conversation turns",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		refinements: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_refinements",
			Help:      "Question refinements per turn",
			Buckets:   []float64{0, 1, 2},
		}),
		collaboratorCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "Total number of collaborator calls",
		}, []string{"collaborator", "status"}),
		collaboratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_call_duration_seconds",
			Help:      "Duration of collaborator calls",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"collaborator"}),
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
		}, []string{"method", "endpoint"}),
	}
}

func (c *Collector) ObserveCall(collaborator string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.collaboratorCalls.WithLabelValues(collaborator, status).Inc()
	c.collaboratorLatency.WithLabelValues(collaborator).Observe(d.Seconds())
}

func (c *Collector) ObserveRun(outcome graph.Outcome, refinements int, d time.Duration) {
	c.turnsTotal.WithLabelValues(string(outcome)).Inc()
	c.turnDuration.Observe(d.Seconds())
	c.refinements.Observe(float64(refinements))
}

func (c *Collector) ObserveHTTP(method, endpoint string, status int, d time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}
