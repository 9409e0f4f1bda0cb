// Package ops serves the operational HTTP endpoints: health, registry
// statistics and broadcast status.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/renamerbot/internal/broadcast"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/registry"
)

const shutdownTimeout = 5 * time.Second

// Registry is the read side of the user registry the endpoints report on.
type Registry interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (registry.Stats, error)
}

// BroadcastStatus reports the dispatcher's progress.
type BroadcastStatus interface {
	Status() broadcast.Status
}

// Server is the ops HTTP server.
type Server struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, reg Registry, status BroadcastStatus, log *slog.Logger) *Server {
	log = logger.OrDiscard(log).With("component", "ops")
	return &Server{
		addr:    addr,
		handler: NewRouter(reg, status, log),
		logger:  log,
	}
}

// NewRouter builds the endpoint routes.
func NewRouter(reg Registry, status BroadcastStatus, log *slog.Logger) http.Handler {
	h := &handler{registry: reg, status: status, logger: logger.OrDiscard(log)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Get("/healthz", h.health)
	r.Get("/stats", h.stats)
	r.Get("/broadcast", h.broadcast)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Ops server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Ops server shutdown failed", "error", err)
		return err
	}
	s.logger.Info("Ops server stopped")
	return nil
}

type handler struct {
	registry Registry
	status   BroadcastStatus
	logger   *slog.Logger
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to gather stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) broadcast(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Status())
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.DebugContext(r.Context(), "Ops request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
