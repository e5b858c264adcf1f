// Package web serves the bot's operational endpoints: /healthz and /metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "botapi"

// PollerStatus is the view of the polling loop the health check needs.
// *polling.Poller satisfies it.
type PollerStatus interface {
	Running() bool
	Offset() int64
}

type Server struct {
	listenPort string
	poller     PollerStatus
	logger     *slog.Logger
}

func NewServer(logger *slog.Logger, listenPort string, poller PollerStatus) *Server {
	return &Server{
		listenPort: listenPort,
		poller:     poller,
		logger:     logger.With("component", "web_server"),
	}
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", instrumentHandler("healthz", s.healthzHandler))
	mux.Handle("/metrics", promhttp.Handler())
	return s.loggingMiddleware(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.listenPort,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("web server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("Starting web server", "port", s.listenPort)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status string `json:"status"`
	Offset int64  `json:"offset"`
}

// healthzHandler reports 200 while the poller runs and 503 once it stopped,
// so a dev-mode failure takes the container out of rotation.
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Offset: s.poller.Offset()}
	status := http.StatusOK
	if !s.poller.Running() {
		resp.Status = "polling stopped"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to write health response", "error", err)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/healthz" || path == "/metrics" {
			s.logger.Debug("Received HTTP request",
				"method", r.Method,
				"path", path,
				"client_ip", getClientIP(r),
			)
		} else {
			s.logger.Info("Received HTTP request",
				"method", r.Method,
				"path", path,
				"client_ip", getClientIP(r),
				"user_agent", r.UserAgent(),
			)
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP prefers proxy headers and falls back to RemoteAddr without the port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
