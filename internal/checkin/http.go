package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/turnstile/internal/adapters/http/swagger"
	"github.com/okian/turnstile/pkg/checkinapi"
	"github.com/okian/turnstile/pkg/logger"
	"github.com/okian/turnstile/pkg/metrics"
)

type ctxKey uint8

const requestIDKey ctxKey = iota

// RequestID returns the request id stored by the router, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type handler struct {
	svc    *Service
	logger logger.Logger
}

// NewRouter mounts the check-in API, metrics and API docs. origins lists the
// browser origins allowed by CORS.
func NewRouter(svc *Service, origins []string) http.Handler {
	h := &handler{svc: svc, logger: svc.logger.Named("http")}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", checkinapi.RequestIDHeader},
		ExposedHeaders:   []string{checkinapi.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(instrument)

	r.Method(http.MethodGet, "/healthz", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/openapi.yaml", swagger.ServeSpec)
	r.Get("/api-docs", swagger.ServeDocs)

	r.Get(checkinapi.PathPing, h.ping)
	r.Post(checkinapi.PathScan, h.scan)
	r.Post(checkinapi.PathManualCheck, h.manualCheck)
	r.Get(checkinapi.PathAttendee+"{ticket}", h.attendee)
	r.Get(checkinapi.PathStats, h.stats)
	r.Get(checkinapi.PathRecent, h.recent)
	r.Get(checkinapi.PathExport, h.export)
	return r
}

func (h *handler) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "pong"})
}

func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	req, err := bindJSON[checkinapi.ScanRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, checkinapi.ScanResponse{Status: checkinapi.StatusInvalidFormat, Error: err.Error()})
		return
	}
	h.logger.Debug(r.Context(), "scan",
		logger.String("requestID", RequestID(r.Context())),
		logger.Int("rawLen", len(req.RawQR)))
	writeJSON(w, http.StatusOK, h.svc.Scan(r.Context(), req.RawQR))
}

func (h *handler) manualCheck(w http.ResponseWriter, r *http.Request) {
	req, err := bindJSON[checkinapi.ManualCheckRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, checkinapi.ScanResponse{Status: checkinapi.StatusInvalidFormat, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Manual(r.Context(), req.TicketNumber))
}

func (h *handler) attendee(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Attendee(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	out, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=attendance_export.csv")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "Not found"})
		return
	}
	h.logger.Error(r.Context(), "request failed",
		logger.String("path", r.URL.Path),
		logger.String("requestID", RequestID(r.Context())),
		logger.Error(err))
	metrics.RecordErrorByComponent("checkin_api", "server_error")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID keeps an incoming X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(checkinapi.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(checkinapi.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// instrument records request counts and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		metrics.RecordHTTPRequest(route, r.Method, code)
		metrics.RecordHTTPRequestDuration(route, r.Method, code, float64(time.Since(start).Milliseconds()))
	})
}
