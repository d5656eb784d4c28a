package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// NewRouter wires middleware and every route of the console.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()

	router.Use(loggingMiddleware(handler.logger, handler.metrics))

	SetupRoutes(router, handler, gatherer)
	return router
}

// StartServer serves until ctx is cancelled or the process gets SIGINT/SIGTERM,
// then shuts down gracefully.
func StartServer(ctx context.Context, handler *Handler, router http.Handler, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  config.ParseDuration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: config.ParseDuration(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	handler.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

func loggingMiddleware(logger *logrus.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			var durationStr string
			if duration < time.Millisecond {
				durationStr = fmt.Sprintf("%.2fµs", float64(duration.Microseconds()))
			} else if duration < time.Second {
				durationStr = fmt.Sprintf("%.2fms", float64(duration.Milliseconds()))
			} else {
				durationStr = fmt.Sprintf("%.2fs", duration.Seconds())
			}

			m.ObserveHTTPRequest(r.Method, rw.status)

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rw.status,
				"duration":   durationStr,
				"user_agent": r.UserAgent(),
				"remote_ip":  r.RemoteAddr,
			})
			if rw.status >= http.StatusInternalServerError {
				entry.Warn("Request processed")
				return
			}
			entry.Info("Request processed")
		})
	}
}

// corsMiddleware opens the JSON API to other origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
