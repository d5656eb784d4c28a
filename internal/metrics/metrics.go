package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "cron_console"

// Breaker state values exported by the breaker gauge.
const (
	BreakerClosed   = 0
	BreakerOpen     = 1
	BreakerHalfOpen = 2
)

// Metrics holds the console's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        prometheus.Registerer
	gatewayCalls    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	breakerState    prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	taskRuns        *prometheus.CounterVec
}

func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Gateway RPC calls by method and result",
			},
			[]string{"method", "result"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Duration of gateway RPC calls",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gateway_breaker_state",
				Help:      "Gateway circuit breaker state: 0=closed, 1=open, 2=half-open",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served by method and status code",
			},
			[]string{"method", "status"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of live browser sessions",
			},
		),
		taskRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "maintenance_task_runs_total",
				Help:      "Maintenance task executions by task and result",
			},
			[]string{"task", "result"},
		),
	}

	reg.MustRegister(
		m.gatewayCalls,
		m.gatewayDuration,
		m.breakerState,
		m.httpRequests,
		m.sessionsActive,
		m.taskRuns,
	)

	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) ObserveGatewayCall(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(method, result(err)).Inc()
	m.gatewayDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}

func (m *Metrics) ObserveHTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, statusLabel(status)).Inc()
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) ObserveTask(task string, err error) {
	if m == nil {
		return
	}
	m.taskRuns.WithLabelValues(task, result(err)).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
