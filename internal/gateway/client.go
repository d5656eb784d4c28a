package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/0xPuncker/cron-console/pkg/types"
)

// RPC methods exposed by the gateway's cron service.
const (
	MethodStatus = "cron.status"
	MethodList   = "cron.list"
	MethodRuns   = "cron.runs"
	MethodAdd    = "cron.add"
	MethodUpdate = "cron.update"
	MethodRun    = "cron.run"
	MethodRemove = "cron.remove"
)

const (
	statusCacheKey = "status"
	listCacheKey   = "jobs"
	runsCacheKey   = "runs:%s"

	defaultRunsLimit = 50
)

// Options tune the client. Zero values fall back to defaults.
type Options struct {
	StatusTTL   time.Duration
	ListTTL     time.Duration
	RunsTTL     time.Duration
	RunsLimit   int
	MaxFailures uint32
	OpenTimeout time.Duration
	// MutationRate is the number of mutating calls allowed per second.
	MutationRate  float64
	MutationBurst int
}

func (o Options) withDefaults() Options {
	if o.StatusTTL <= 0 {
		o.StatusTTL = 15 * time.Second
	}
	if o.ListTTL <= 0 {
		o.ListTTL = 15 * time.Second
	}
	if o.RunsTTL <= 0 {
		o.RunsTTL = 10 * time.Second
	}
	if o.RunsLimit <= 0 {
		o.RunsLimit = defaultRunsLimit
	}
	if o.MaxFailures == 0 {
		o.MaxFailures = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	if o.MutationRate <= 0 {
		o.MutationRate = 5
	}
	if o.MutationBurst <= 0 {
		o.MutationBurst = 10
	}
	return o
}

// Client talks to the gateway's cron service. Reads are cached briefly, every
// call goes through a circuit breaker and mutations are rate limited.
type Client struct {
	transport Transport
	cache     *cache.Cache
	breaker   *gobreaker.CircuitBreaker[json.RawMessage]
	limiter   *rate.Limiter
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	opts      Options
}

func NewClient(transport Transport, opts Options, logger *logrus.Logger, m *metrics.Metrics) *Client {
	opts = opts.withDefaults()

	c := &Client{
		transport: transport,
		cache:     cache.New(opts.ListTTL, time.Minute),
		limiter:   rate.NewLimiter(rate.Limit(opts.MutationRate), opts.MutationBurst),
		logger:    logger,
		metrics:   m,
		opts:      opts,
	}

	c.breaker = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        "gateway",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state change")
			m.SetBreakerState(breakerGauge(to))
		},
		// The gateway answered, only transport failures count.
		IsSuccessful: func(err error) bool {
			var rpcErr *RPCError
			return err == nil || errors.As(err, &rpcErr) || errors.Is(err, context.Canceled)
		},
	})

	return c
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	start := time.Now()
	raw, err := c.breaker.Execute(func() (json.RawMessage, error) {
		return c.transport.Call(ctx, method, params)
	})
	c.metrics.ObserveGatewayCall(method, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: circuit open: %v", ErrUnavailable, err)
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"error":  err,
		}).Debug("Gateway call failed")
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, method string, params any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", method, err)
	}
	err := c.call(ctx, method, params, result)
	c.Invalidate()
	return err
}

// Invalidate drops every cached read.
func (c *Client) Invalidate() {
	c.cache.Flush()
}

func (c *Client) Status(ctx context.Context) (*types.SchedulerStatus, error) {
	if cached, found := c.cache.Get(statusCacheKey); found {
		return cached.(*types.SchedulerStatus), nil
	}

	var status types.SchedulerStatus
	if err := c.call(ctx, MethodStatus, struct{}{}, &status); err != nil {
		return nil, err
	}
	c.cache.Set(statusCacheKey, &status, c.opts.StatusTTL)
	return &status, nil
}

type listParams struct {
	IncludeDisabled bool `json:"includeDisabled"`
}

type listResult struct {
	Jobs []types.Job `json:"jobs"`
}

func (c *Client) List(ctx context.Context) ([]types.Job, error) {
	if cached, found := c.cache.Get(listCacheKey); found {
		return cached.([]types.Job), nil
	}

	var res listResult
	if err := c.call(ctx, MethodList, listParams{IncludeDisabled: true}, &res); err != nil {
		return nil, err
	}
	if res.Jobs == nil {
		res.Jobs = []types.Job{}
	}
	c.cache.Set(listCacheKey, res.Jobs, c.opts.ListTTL)
	return res.Jobs, nil
}

type idParams struct {
	ID string `json:"id"`
}

type runsParams struct {
	ID    string `json:"id"`
	Limit int    `json:"limit,omitempty"`
}

type runsResult struct {
	Entries []types.RunLogEntry `json:"entries"`
}

func (c *Client) Runs(ctx context.Context, id string) ([]types.RunLogEntry, error) {
	key := fmt.Sprintf(runsCacheKey, id)
	if cached, found := c.cache.Get(key); found {
		return cached.([]types.RunLogEntry), nil
	}

	var res runsResult
	if err := c.call(ctx, MethodRuns, runsParams{ID: id, Limit: c.opts.RunsLimit}, &res); err != nil {
		return nil, err
	}
	if res.Entries == nil {
		res.Entries = []types.RunLogEntry{}
	}
	c.cache.Set(key, res.Entries, c.opts.RunsTTL)
	return res.Entries, nil
}

func (c *Client) Add(ctx context.Context, in types.JobInput) (*types.Job, error) {
	var job types.Job
	if err := c.mutate(ctx, MethodAdd, in, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

type updateParams struct {
	ID    string `json:"id"`
	Patch any    `json:"patch"`
}

func (c *Client) Update(ctx context.Context, id string, in types.JobInput) (*types.Job, error) {
	var job types.Job
	if err := c.mutate(ctx, MethodUpdate, updateParams{ID: id, Patch: in}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

type enabledPatch struct {
	Enabled bool `json:"enabled"`
}

func (c *Client) SetEnabled(ctx context.Context, id string, enabled bool) (*types.Job, error) {
	var job types.Job
	if err := c.mutate(ctx, MethodUpdate, updateParams{ID: id, Patch: enabledPatch{Enabled: enabled}}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

type runParams struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

// Run fires the job immediately, regardless of its schedule.
func (c *Client) Run(ctx context.Context, id string) error {
	return c.mutate(ctx, MethodRun, runParams{ID: id, Mode: "force"}, nil)
}

func (c *Client) Remove(ctx context.Context, id string) error {
	return c.mutate(ctx, MethodRemove, idParams{ID: id}, nil)
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) Close() error {
	return c.transport.Close()
}
