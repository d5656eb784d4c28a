package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the counter or gauge value of the series matching labels.
func value(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] == lp.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestObserveGatewayCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	m.ObserveGatewayCall("cron.list", 10*time.Millisecond, nil)
	m.ObserveGatewayCall("cron.list", 10*time.Millisecond, nil)
	m.ObserveGatewayCall("cron.add", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, value(t, reg, "test_gateway_calls_total", map[string]string{"method": "cron.list", "result": "success"}))
	assert.Equal(t, 1.0, value(t, reg, "test_gateway_calls_total", map[string]string{"method": "cron.add", "result": "error"}))
}

func TestGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	m.SetBreakerState(BreakerOpen)
	m.SetSessions(3)

	assert.Equal(t, 1.0, value(t, reg, "test_gateway_breaker_state", nil))
	assert.Equal(t, 3.0, value(t, reg, "test_sessions_active", nil))
}

func TestHTTPAndTasks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	m.ObserveHTTPRequest("POST", 303)
	m.ObserveHTTPRequest("GET", 200)
	m.ObserveTask("prune-sessions", nil)

	assert.Equal(t, 1.0, value(t, reg, "test_http_requests_total", map[string]string{"method": "POST", "status": "3xx"}))
	assert.Equal(t, 1.0, value(t, reg, "test_http_requests_total", map[string]string{"method": "GET", "status": "2xx"}))
	assert.Equal(t, 1.0, value(t, reg, "test_maintenance_task_runs_total", map[string]string{"task": "prune-sessions", "result": "success"}))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveGatewayCall("cron.list", time.Second, nil)
		m.SetBreakerState(BreakerClosed)
		m.ObserveHTTPRequest("GET", 200)
		m.SetSessions(1)
		m.ObserveTask("x", nil)
	})
}
