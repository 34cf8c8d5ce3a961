// Package httphandler is the HTTP driving adapter that serves the JSON API.
package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/application"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

const (
	defaultBootLimit = 20
	maxBootLimit     = 100
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	statusSvc *application.StatusService
	bootStore driven.BootStore
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. bootStore may
// be nil, in which case the boot journal endpoint reports 503.
func NewHandler(
	statusSvc *application.StatusService,
	bootStore driven.BootStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		statusSvc: statusSvc,
		bootStore: bootStore,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers the JSON API on mux. Only GET is routed here;
// other methods fall through to whatever handles "/".
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /api/boots", h.ListBoots)
	mux.HandleFunc("GET /api/health", h.Health)
}

// ApplyMiddleware wraps handler with logging and recovery middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// Status returns the device address and advertised hostname.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	status := h.statusSvc.Current()

	writeJSON(w, http.StatusOK, StatusResponse{
		IP:   status.IP,
		Host: status.Host,
	})
}

// ListBoots returns the most recent boot journal entries, newest first.
func (h *Handler) ListBoots(w http.ResponseWriter, r *http.Request) {
	if h.bootStore == nil {
		writeError(w, http.StatusServiceUnavailable, "boot journal unavailable")
		return
	}

	limit := defaultBootLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxBootLimit)
	}

	records, err := h.bootStore.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list boot records", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]BootRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toBootRecordResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
