package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/gorilla/mux"
)

const maxValidateBody = 64 << 10

type HealthResponse struct {
	Status    string `json:"status"`
	Breaker   string `json:"breaker"`
	Scheduler bool   `json:"scheduler"`
}

type JobsResponse struct {
	Jobs   []types.Job    `json:"jobs"`
	Counts joblist.Counts `json:"counts"`
}

type RunsResponse struct {
	JobID   string              `json:"job_id"`
	Entries []types.RunLogEntry `json:"entries"`
}

type ValidateResponse struct {
	Errors         form.Errors  `json:"errors"`
	Preview        form.Preview `json:"preview"`
	ChannelOptions []string     `json:"channel_options"`
	CanSubmit      bool         `json:"can_submit"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	breaker := h.gateway.BreakerState()
	status := "ok"
	if breaker == "open" {
		status = "degraded"
	}
	h.writeJSON(w, HealthResponse{
		Status:    status,
		Breaker:   breaker,
		Scheduler: h.Scheduler != nil && h.Scheduler.IsRunning(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, err := h.gateway.Status(ctx)
	if err != nil {
		h.handleError(w, err, gatewayStatusCode(err))
		return
	}
	h.writeJSON(w, status)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	jobs, err := h.gateway.List(ctx)
	if err != nil {
		h.handleError(w, err, gatewayStatusCode(err))
		return
	}

	query := r.URL.Query()
	filtered := joblist.Filter(jobs, joblist.ParseFilterType(query.Get("filter")), query.Get("q"))
	h.writeJSON(w, JobsResponse{
		Jobs:   filtered,
		Counts: joblist.Count(jobs),
	})
}

func (h *Handler) GetJobRuns(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entries, err := h.gateway.Runs(ctx, id)
	if err != nil {
		h.handleError(w, err, gatewayStatusCode(err))
		return
	}
	if entries == nil {
		entries = []types.RunLogEntry{}
	}
	h.writeJSON(w, RunsResponse{JobID: id, Entries: entries})
}

// ValidateForm runs the form checks for API clients. Fields missing from the
// body keep their "New Job" defaults.
func (h *Handler) ValidateForm(w http.ResponseWriter, r *http.Request) {
	state := form.Default()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValidateBody))
	if err := decoder.Decode(&state); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	errs := form.Validate(state)
	if errs == nil {
		errs = form.Errors{}
	}
	h.writeJSON(w, ValidateResponse{
		Errors:         errs,
		Preview:        form.PreviewSchedule(state, h.loc, h.now()),
		ChannelOptions: form.ChannelOptions(h.channels.IDs(), state.Channel),
		CanSubmit:      form.CanSubmit(errs, false),
	})
}

func gatewayStatusCode(err error) int {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		var rpcErr *gateway.RPCError
		if errors.As(err, &rpcErr) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, code int) {
	h.logger.Errorf("API error: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error":     err.Error(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
