package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/testutil"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshJob(t *testing.T) {
	logger := logrus.New()
	fake := testutil.NewFakeGateway(t, testutil.SampleJob("job-1", "Morning digest"))
	client := gateway.NewClient(gateway.NewHTTPTransport(fake.URL(), "", time.Second), gateway.Options{}, logger, nil)
	defer client.Close()

	var refreshedAt time.Time
	job := NewRefreshJob(client, logger, time.Second, func(at time.Time) { refreshedAt = at })

	require.NoError(t, job.Run())
	require.NoError(t, job.Run())

	assert.False(t, refreshedAt.IsZero())
	// The cache is dropped on every run so each run reaches the gateway.
	assert.Equal(t, 2, fake.Calls(gateway.MethodStatus))
	assert.Equal(t, 2, fake.Calls(gateway.MethodList))
}

type failingReader struct {
	invalidated int
}

func (f *failingReader) Invalidate() { f.invalidated++ }

func (f *failingReader) Status(context.Context) (*types.SchedulerStatus, error) {
	return &types.SchedulerStatus{Enabled: true}, nil
}

func (f *failingReader) List(context.Context) ([]types.Job, error) {
	return nil, errors.New("gateway down")
}

func TestRefreshJobError(t *testing.T) {
	reader := &failingReader{}
	called := false
	job := NewRefreshJob(reader, logrus.New(), 0, func(time.Time) { called = true })

	err := job.Run()
	assert.ErrorContains(t, err, "failed to refresh job list")
	assert.Equal(t, 1, reader.invalidated)
	assert.False(t, called)
}

type countingPruner struct{ calls int }

func (p *countingPruner) Prune() int {
	p.calls++
	return 3
}

func TestPruneSessionsTask(t *testing.T) {
	pruner := &countingPruner{}
	task := NewPruneSessionsTask(pruner, logrus.New())

	assert.NoError(t, task())
	assert.Equal(t, 1, pruner.calls)
}
