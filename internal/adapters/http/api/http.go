// Package api exposes the terminal's local control API: metrics, state and
// the operator commands, for kiosks driven by another process.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/turnstile/internal/app"
	"github.com/okian/turnstile/internal/domain/mode"
	"github.com/okian/turnstile/internal/domain/model"
)

// Terminal is what the handlers drive. *service.Service implements it.
type Terminal interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	GetStats() map[string]interface{}
	SetMode(ctx context.Context, m model.Mode) error
	ToggleMode(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Manual(ctx context.Context, ticket string) error
	NextDevice(ctx context.Context) error
	Export(ctx context.Context) (string, error)
}

// Server wires HTTP routes for the control API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	controlHandler *ControlHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(t Terminal) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(t),
		controlHandler: NewControlHandler(t),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/mode", MetricsMiddleware(s.controlHandler.HandleMode, "mode"))
	mux.HandleFunc("/dismiss", MetricsMiddleware(s.controlHandler.HandleDismiss, "dismiss"))
	mux.HandleFunc("/manual", MetricsMiddleware(s.controlHandler.HandleManual, "manual"))
	mux.HandleFunc("/devices/next", MetricsMiddleware(s.controlHandler.HandleNextDevice, "devices_next"))
	mux.HandleFunc("/export", MetricsMiddleware(s.controlHandler.HandleExport, "export"))
}

type ackResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode,omitempty"`
	Path   string `json:"path,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeCommandError maps terminal errors onto status codes.
func writeCommandError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrEmptyTicket), errors.Is(err, mode.ErrUnknownMode):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, service.ErrManualOverrideDisabled), errors.Is(err, service.ErrNothingToDismiss):
		writeError(w, http.StatusConflict, "conflict", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, mode.ErrNotSupported):
		writeError(w, http.StatusUnprocessableEntity, "not_supported", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, mode.ErrChannelUnavailable):
		writeError(w, http.StatusServiceUnavailable, "channel_unavailable", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", fmt.Errorf("%s: %w", op, err))
	}
}
