// Package api exposes the subnetting engine over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"

	"ipmentor/docs"
	"ipmentor/internal/observability"
)

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Server handles the calculator API endpoints.
type Server struct {
	mux     *http.ServeMux
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewServer creates a new HTTP server with the given dependencies.
// If logger is nil, a default logger will be used.
// If metrics is nil, metrics collection is disabled.
func NewServer(mux *http.ServeMux, logger observability.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	return &Server{mux: mux, logger: logger, metrics: metrics}
}

// RegisterRoutes registers all HTTP routes on the server's mux.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/openapi.yaml", s.handleOpenAPISpec)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("/api/v1/ip-info", s.handleIPInfo)
	s.mux.HandleFunc("/api/v1/subnet-calc", s.handleSubnetCalc)
}

func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg string, detail string) {
	fields := []any{
		"status", code,
		"error", msg,
	}
	if detail != "" {
		fields = append(fields, "detail", detail)
	}
	fields = appendRequestID(ctx, fields)
	if code >= 500 {
		s.logger.ErrorContext(ctx, "request failed", fields...)
		sentry.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	} else {
		s.logger.WarnContext(ctx, "request failed", fields...)
	}
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use GET")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docs.OpenAPISpec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessResponse represents the JSON response for the readiness check
// endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady verifies the engine produces a correct result for a known
// input. The engine has no external dependencies, so this is a pure
// self-check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use GET")
		return
	}

	checks := map[string]string{"engine": "ok"}
	status := "ok"
	code := http.StatusOK

	if !engineSelfCheck() {
		checks["engine"] = "error"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		s.logger.ErrorContext(r.Context(), "readiness check failed",
			appendRequestID(r.Context(), []any{"check", "engine"})...)
	}

	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
