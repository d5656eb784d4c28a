package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/cron"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/0xPuncker/cron-console/internal/notifications"
	"github.com/0xPuncker/cron-console/internal/view"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/sirupsen/logrus"
)

// Gateway is the cron service the console drives. *gateway.Client implements it.
type Gateway interface {
	Status(ctx context.Context) (*types.SchedulerStatus, error)
	List(ctx context.Context) ([]types.Job, error)
	Runs(ctx context.Context, id string) ([]types.RunLogEntry, error)
	Add(ctx context.Context, in types.JobInput) (*types.Job, error)
	Update(ctx context.Context, id string, in types.JobInput) (*types.Job, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*types.Job, error)
	Run(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	Invalidate()
	BreakerState() string
}

// Auditor is told about every successful job mutation.
type Auditor interface {
	JobChanged(action notifications.Action, job types.Job, actor string)
}

type Deps struct {
	Gateway  Gateway
	Logger   *logrus.Logger
	Config   *config.Config
	Channels *config.ChannelConfig
	Metrics  *metrics.Metrics
	Auditor  Auditor
}

type Handler struct {
	gateway   Gateway
	sessions  *SessionStore
	renderer  *view.Renderer
	logger    *logrus.Logger
	config    *config.Config
	channels  *config.ChannelConfig
	metrics   *metrics.Metrics
	auditor   Auditor
	loc       *time.Location
	timeout   time.Duration
	Scheduler *cron.Scheduler

	mu          sync.RWMutex
	lastUpdated time.Time

	now func() time.Time
}

func NewHandler(deps Deps) (*Handler, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		gateway:  deps.Gateway,
		sessions: NewSessionStore(config.ParseDuration(cfg.Session.TTL, 12*time.Hour), cfg.Session.Secure, deps.Metrics),
		renderer: renderer,
		logger:   logger,
		config:   cfg,
		channels: deps.Channels,
		metrics:  deps.Metrics,
		auditor:  deps.Auditor,
		loc:      cfg.Location(),
		timeout:  config.ParseDuration(cfg.Gateway.Timeout, 10*time.Second),
		now:      time.Now,
	}

	scheduler := cron.NewScheduler(logger, cfg.Jobs, deps.Metrics)
	scheduler.RegisterTask(cron.TaskRefreshGateway, cron.NewRefreshJob(h.gateway, logger, h.timeout, h.markUpdated).Run)
	scheduler.RegisterTask(cron.TaskPruneSessions, cron.NewPruneSessionsTask(h.sessions, logger))
	if err := scheduler.LoadPredefinedTasks(cfg.Jobs.Predefined); err != nil {
		return nil, fmt.Errorf("failed to load maintenance tasks: %w", err)
	}
	h.Scheduler = scheduler

	return h, nil
}

func (h *Handler) markUpdated(at time.Time) {
	h.mu.Lock()
	h.lastUpdated = at
	h.mu.Unlock()
}

func (h *Handler) updatedAt() *time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastUpdated.IsZero() {
		return nil
	}
	at := h.lastUpdated
	return &at
}

// CronPage renders the whole console for the session.
func (h *Handler) CronPage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	state := sess.State()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, statusErr := h.gateway.Status(ctx)
	if statusErr != nil {
		h.logger.WithError(statusErr).Warn("Failed to load scheduler status")
	}

	pageError := state.Error
	jobs, listErr := h.gateway.List(ctx)
	if listErr != nil {
		h.logger.WithError(listErr).Warn("Failed to load jobs")
		if pageError == "" {
			pageError = "Failed to load jobs: " + listErr.Error()
		}
	}

	var runs []types.RunLogEntry
	if state.RunsJobID != "" && listErr == nil {
		var err error
		runs, err = h.gateway.Runs(ctx, state.RunsJobID)
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			sess.Update(func(st *UIState) { st.RunsJobID = "" })
			state.RunsJobID = ""
		case err != nil:
			h.logger.WithError(err).WithField("job_id", state.RunsJobID).Warn("Failed to load run history")
		}
	}

	if statusErr == nil && listErr == nil && h.updatedAt() == nil {
		h.markUpdated(h.now())
	}

	busy := sess.Busy()
	page := view.NewCronPage(view.CronProps{
		Loading:         busy,
		Status:          status,
		Jobs:            jobs,
		Error:           pageError,
		Flash:           sess.TakeFlash(),
		Busy:            busy,
		Form:            state.Form,
		Channels:        h.channels.IDs(),
		ChannelLabels:   h.channels.Labels(),
		ChannelMeta:     h.channels.Meta(),
		RunsJobID:       state.RunsJobID,
		Runs:            runs,
		LastUpdated:     h.updatedAt(),
		EditingJobID:    state.EditingJobID,
		Filter:          state.Filter,
		FilterType:      state.FilterType,
		ConfirmRemoveID: state.ConfirmRemoveID,
		Location:        h.loc,
		Now:             h.now(),
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.RenderPage(w, page); err != nil {
		h.logger.WithError(err).Error("Failed to render cron page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, view.PathCron, http.StatusSeeOther)
}

func (h *Handler) audit(action notifications.Action, job types.Job, sess *Session) {
	if h.auditor == nil {
		return
	}
	h.auditor.JobChanged(action, job, sess.ID)
}
