package gateway

import (
	"fmt"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/sirupsen/logrus"
)

// NewTransport picks the transport named by kind.
func NewTransport(kind, baseURL, token string, timeout time.Duration, logger *logrus.Logger) (Transport, error) {
	switch kind {
	case TransportHTTP, "":
		return NewHTTPTransport(baseURL, token, timeout), nil
	case TransportWS:
		return NewWSTransport(baseURL, token, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown gateway transport %q", kind)
	}
}

// NewClientFromConfig builds the transport and client described by cfg.
func NewClientFromConfig(cfg config.GatewayConfig, logger *logrus.Logger, m *metrics.Metrics) (*Client, error) {
	timeout := config.ParseDuration(cfg.Timeout, 10*time.Second)
	transport, err := NewTransport(cfg.Transport, cfg.URL, cfg.Token, timeout, logger)
	if err != nil {
		return nil, err
	}

	opts := Options{
		StatusTTL:     config.ParseDuration(cfg.Cache.StatusTTL, 0),
		ListTTL:       config.ParseDuration(cfg.Cache.ListTTL, 0),
		RunsTTL:       config.ParseDuration(cfg.Cache.RunsTTL, 0),
		RunsLimit:     cfg.RunsLimit,
		OpenTimeout:   config.ParseDuration(cfg.Breaker.OpenTimeout, 0),
		MutationRate:  cfg.MutationRate,
		MutationBurst: cfg.MutationBurst,
	}
	if cfg.Breaker.MaxFailures > 0 {
		opts.MaxFailures = uint32(cfg.Breaker.MaxFailures)
	}

	return NewClient(transport, opts, logger, m), nil
}
