package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/turnstile/internal/domain/model"
)

// ControlHandler handles the operator command routes.
type ControlHandler struct {
	terminal Terminal
}

// NewControlHandler creates a new control handler.
func NewControlHandler(t Terminal) *ControlHandler {
	return &ControlHandler{terminal: t}
}

type modeRequest struct {
	// Mode is "camera", "discrete" or "toggle".
	Mode string `json:"mode"`
}

type manualRequest struct {
	Ticket string `json:"ticket"`
}

// HandleMode handles POST /mode.
func (h *ControlHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	const op = "api.mode"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandError(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	var err error
	if strings.EqualFold(strings.TrimSpace(req.Mode), "toggle") {
		err = h.terminal.ToggleMode(r.Context())
	} else {
		m, perr := model.ParseMode(req.Mode)
		if perr != nil {
			writeCommandError(w, op, fmt.Errorf("%w: %w", ErrBadRequest, perr))
			return
		}
		err = h.terminal.SetMode(r.Context(), m)
	}
	if err != nil {
		writeCommandError(w, op, err)
		return
	}
	snap, err := h.terminal.Snapshot(r.Context())
	if err != nil {
		writeCommandError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok", Mode: snap.ModeName})
}

// HandleDismiss handles POST /dismiss.
func (h *ControlHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.terminal.Dismiss(r.Context()); err != nil {
		writeCommandError(w, "api.dismiss", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// HandleManual handles POST /manual. The lookup is asynchronous; the
// outcome appears on the panel and in GET /stats.
func (h *ControlHandler) HandleManual(w http.ResponseWriter, r *http.Request) {
	const op = "api.manual"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommandError(w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := h.terminal.Manual(r.Context(), req.Ticket); err != nil {
		writeCommandError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleNextDevice handles POST /devices/next.
func (h *ControlHandler) HandleNextDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.terminal.NextDevice(r.Context()); err != nil {
		writeCommandError(w, "api.devices_next", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// HandleExport handles POST /export.
func (h *ControlHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	path, err := h.terminal.Export(r.Context())
	if err != nil {
		writeCommandError(w, "api.export", err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok", Path: path})
}
