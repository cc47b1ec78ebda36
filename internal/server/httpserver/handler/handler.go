package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

// Error codes returned in the envelope.
const (
	CodeNotReady = "KV-SYS-5030"
	CodeNotFound = "KV-ARG-4040"
)

// Config wires the handler to its data sources.
type Config struct {
	Stats   StatsFunc
	Ready   func() bool
	Metrics http.Handler
	Logger  *slog.Logger
}

// Handler routes side server requests.
type Handler struct {
	stats   StatsFunc
	ready   func() bool
	metrics http.Handler
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		stats:   cfg.Stats,
		ready:   cfg.Ready,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		mux:     http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}
	h.mux.HandleFunc("/", h.handleNotFound)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, NewResponse(logger.RequestIDFromContext(r.Context()), data))
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, data any) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, status, NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message, data))
}

func (h *Handler) write(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, CodeNotFound, "no such endpoint", nil)
}
