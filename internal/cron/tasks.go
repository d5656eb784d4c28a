package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/sirupsen/logrus"
)

const (
	TaskRefreshGateway = "refresh-gateway"
	TaskPruneSessions  = "prune-sessions"
)

// GatewayReader is the part of the gateway client the refresh task needs.
type GatewayReader interface {
	Invalidate()
	Status(ctx context.Context) (*types.SchedulerStatus, error)
	List(ctx context.Context) ([]types.Job, error)
}

// RefreshJob warms the gateway cache so page loads read fresh data.
type RefreshJob struct {
	gateway   GatewayReader
	logger    *logrus.Logger
	timeout   time.Duration
	refreshed func(time.Time)
}

// NewRefreshJob builds the refresh task. refreshed is called with the completion
// time after both reads succeed; it may be nil.
func NewRefreshJob(gateway GatewayReader, logger *logrus.Logger, timeout time.Duration, refreshed func(time.Time)) *RefreshJob {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RefreshJob{
		gateway:   gateway,
		logger:    logger,
		timeout:   timeout,
		refreshed: refreshed,
	}
}

func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.gateway.Invalidate()

	status, err := j.gateway.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh scheduler status: %w", err)
	}
	jobs, err := j.gateway.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh job list: %w", err)
	}

	j.logger.WithFields(logrus.Fields{
		"scheduler_enabled": status.Enabled,
		"jobs":              len(jobs),
	}).Debug("Gateway state refreshed")

	if j.refreshed != nil {
		j.refreshed(time.Now())
	}
	return nil
}

// SessionPruner drops expired sessions and reports how many remain.
type SessionPruner interface {
	Prune() int
}

func NewPruneSessionsTask(pruner SessionPruner, logger *logrus.Logger) TaskFunc {
	return func() error {
		remaining := pruner.Prune()
		logger.WithField("sessions", remaining).Debug("Expired sessions pruned")
		return nil
	}
}
