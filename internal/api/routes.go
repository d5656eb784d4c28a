package api

import (
	"net/http"

	"github.com/0xPuncker/cron-console/internal/view"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *mux.Router, handler *Handler, gatherer prometheus.Gatherer) {
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, view.PathCron, http.StatusFound)
	}).Methods(http.MethodGet)

	router.HandleFunc(view.PathCron, handler.CronPage).Methods(http.MethodGet)
	router.HandleFunc(view.PathForm, handler.FormAction).Methods(http.MethodPost)
	router.HandleFunc(view.PathFormCancel, handler.CancelEdit).Methods(http.MethodPost)
	router.HandleFunc(view.PathNewJob, handler.NewJob).Methods(http.MethodPost)
	router.HandleFunc(view.PathRuns, handler.SelectRuns).Methods(http.MethodPost)
	router.HandleFunc(view.PathFilter, handler.SetFilter).Methods(http.MethodPost)
	router.HandleFunc(view.PathRefresh, handler.Refresh).Methods(http.MethodPost)
	router.HandleFunc(view.PathDialogCancel, handler.CancelDialog).Methods(http.MethodPost)

	jobs := router.PathPrefix("/cron/jobs/{id}").Subrouter()
	jobs.HandleFunc("/"+view.ActionEdit, handler.EditJob).Methods(http.MethodPost)
	jobs.HandleFunc("/"+view.ActionDuplicate, handler.DuplicateJob).Methods(http.MethodPost)
	jobs.HandleFunc("/"+view.ActionToggle, handler.ToggleJob).Methods(http.MethodPost)
	jobs.HandleFunc("/"+view.ActionRun, handler.RunJob).Methods(http.MethodPost)
	jobs.HandleFunc("/"+view.ActionRemove, handler.RemoveJob).Methods(http.MethodPost)
	jobs.HandleFunc("/"+view.ActionRemoveConfirm, handler.ConfirmRemoveJob).Methods(http.MethodPost)

	router.PathPrefix(view.PathStatic).Handler(
		http.StripPrefix(view.PathStatic, http.FileServer(http.FS(view.Static()))),
	).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(corsMiddleware)
	v1.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	v1.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	v1.HandleFunc("/status", handler.GetStatus).Methods(http.MethodGet)
	v1.HandleFunc("/jobs", handler.ListJobs).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{id}/runs", handler.GetJobRuns).Methods(http.MethodGet)
	v1.HandleFunc("/form/validate", handler.ValidateForm).Methods(http.MethodPost)

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}
