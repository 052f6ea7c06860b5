package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AlertReader reads the persisted alert text.
type AlertReader interface {
	Read() (string, bool, error)
}

// AlertStatus is the /alert response body.
type AlertStatus struct {
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

// Server exposes health, readiness, metrics, and alert status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /alert routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, alerts AlertReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /alert", s.handleAlert(alerts))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleAlert(alerts AlertReader) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		text, ok, err := alerts.Read()
		if err != nil {
			s.logger.Warn("read alert failed", "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !ok || strings.TrimSpace(text) == "" {
			sharedobs.WriteJSON(w, http.StatusOK, AlertStatus{})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, AlertStatus{Active: true, Message: text})
	}
}
