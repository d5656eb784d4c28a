package gateway

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/testutil"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, transport string, jobs ...types.Job) (*Client, *testutil.FakeGateway) {
	t.Helper()

	fake := testutil.NewFakeGateway(t, jobs...)
	logger := testLogger()

	var tr Transport
	switch transport {
	case TransportWS:
		tr = NewWSTransport(fake.URL(), "", 2*time.Second, logger)
	default:
		tr = NewHTTPTransport(fake.URL(), "", 2*time.Second)
	}

	client := NewClient(tr, Options{MaxFailures: 2, OpenTimeout: time.Minute}, logger, nil)
	t.Cleanup(func() { client.Close() })
	return client, fake
}

func TestClientTransports(t *testing.T) {
	for _, transport := range []string{TransportHTTP, TransportWS} {
		t.Run(transport, func(t *testing.T) {
			client, fake := newTestClient(t, transport, testutil.SampleJob("job-a", "Daily ping"))
			ctx := context.Background()

			status, err := client.Status(ctx)
			require.NoError(t, err)
			assert.True(t, status.Enabled)
			assert.Equal(t, 1, status.Jobs)
			assert.NotNil(t, status.NextWakeAtMs)

			jobs, err := client.List(ctx)
			require.NoError(t, err)
			require.Len(t, jobs, 1)
			assert.Equal(t, "Daily ping", jobs[0].Name)
			assert.Equal(t, types.CronSchedule{Expr: "0 9 * * *"}, jobs[0].Schedule)

			added, err := client.Add(ctx, types.JobInput{
				Name:          "Hourly",
				Enabled:       true,
				Schedule:      types.EverySchedule{Amount: 1, Unit: types.UnitHours},
				SessionTarget: types.SessionMain,
				WakeMode:      types.WakeNow,
				Payload:       types.AgentTurnPayload{Message: "hi", Channel: "last"},
			})
			require.NoError(t, err)
			assert.NotEmpty(t, added.ID)
			assert.Equal(t, types.EverySchedule{Amount: 1, Unit: types.UnitHours}, added.Schedule)

			jobs, err = client.List(ctx)
			require.NoError(t, err)
			assert.Len(t, jobs, 2)

			require.NoError(t, client.Run(ctx, "job-a"))
			runs, err := client.Runs(ctx, "job-a")
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, types.RunClassSuccess, runs[0].Class())

			toggled, err := client.SetEnabled(ctx, "job-a", false)
			require.NoError(t, err)
			assert.False(t, toggled.Enabled)
			stored, _ := fake.Job("job-a")
			assert.False(t, stored.Enabled)
			assert.Equal(t, "Daily ping", stored.Name)

			require.NoError(t, client.Remove(ctx, added.ID))
			_, found := fake.Job(added.ID)
			assert.False(t, found)
		})
	}
}

func TestClientCachesReads(t *testing.T) {
	client, fake := newTestClient(t, TransportHTTP, testutil.SampleJob("job-a", "Daily ping"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.List(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.Calls(MethodList))

	client.Invalidate()
	_, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls(MethodList))

	// mutations drop the cache
	_, err = client.SetEnabled(ctx, "job-a", false)
	require.NoError(t, err)
	jobs, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.Calls(MethodList))
	assert.False(t, jobs[0].Enabled)
}

func TestClientUpdate(t *testing.T) {
	client, fake := newTestClient(t, TransportHTTP, testutil.SampleJob("job-a", "Daily ping"))

	in := testutil.SampleJob("", "Renamed").Input()
	in.Schedule = types.CronSchedule{Expr: "*/5 * * * *", TZ: "UTC"}

	job, err := client.Update(context.Background(), "job-a", in)
	require.NoError(t, err)
	assert.Equal(t, "job-a", job.ID)
	assert.Equal(t, "Renamed", job.Name)

	stored, _ := fake.Job("job-a")
	assert.Equal(t, types.CronSchedule{Expr: "*/5 * * * *", TZ: "UTC"}, stored.Schedule)
}

func TestClientNotFound(t *testing.T) {
	for _, transport := range []string{TransportHTTP, TransportWS} {
		t.Run(transport, func(t *testing.T) {
			client, _ := newTestClient(t, transport)

			err := client.Remove(context.Background(), "missing")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotFound))

			var rpcErr *RPCError
			require.True(t, errors.As(err, &rpcErr))
			assert.Equal(t, MethodRemove, rpcErr.Method)
		})
	}
}

func TestClientBreakerOpens(t *testing.T) {
	client, fake := newTestClient(t, TransportHTTP)
	fake.SetDown(true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Status(ctx)
		assert.True(t, errors.Is(err, ErrUnavailable))
	}
	assert.Equal(t, 2, fake.Calls(MethodStatus))
	assert.Equal(t, "open", client.BreakerState())

	// the open breaker fails fast without reaching the gateway
	_, err := client.List(ctx)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 0, fake.Calls(MethodList))
}

func TestClientRPCErrorsDoNotTripBreaker(t *testing.T) {
	client, _ := newTestClient(t, TransportHTTP)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.Error(t, client.Run(ctx, "missing"))
	}
	assert.Equal(t, "closed", client.BreakerState())
}

func TestHTTPTransportSendsToken(t *testing.T) {
	fake := testutil.NewFakeGateway(t)
	fake.RequireToken("secret")

	_, err := NewHTTPTransport(fake.URL(), "wrong", time.Second).Call(context.Background(), MethodStatus, struct{}{})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "unauthorized", rpcErr.Message)

	raw, err := NewHTTPTransport(fake.URL(), "secret", time.Second).Call(context.Background(), MethodStatus, struct{}{})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"enabled":true`)
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:18789/ws", wsURL("http://localhost:18789/"))
	assert.Equal(t, "wss://gw.example.com/ws", wsURL("https://gw.example.com"))
	assert.Equal(t, "ws://gw/ws", wsURL("ws://gw/ws"))
}

func TestNewClientFromConfig(t *testing.T) {
	fake := testutil.NewFakeGateway(t, testutil.SampleJob("a1", "Morning digest"))

	for _, transport := range []string{TransportHTTP, TransportWS} {
		t.Run(transport, func(t *testing.T) {
			cfg := config.DefaultConfig().Gateway
			cfg.URL = fake.URL()
			cfg.Transport = transport

			client, err := NewClientFromConfig(cfg, testLogger(), nil)
			require.NoError(t, err)
			defer client.Close()

			jobs, err := client.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, jobs, 1)
		})
	}

	_, err := NewTransport("carrier-pigeon", fake.URL(), "", time.Second, testLogger())
	assert.Error(t, err)
}
