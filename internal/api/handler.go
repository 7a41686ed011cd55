package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"tictacmatch/internal/geo"
	"tictacmatch/internal/session"
)

// Locator resolves network information for an IP.
type Locator interface {
	Lookup(ctx context.Context, ip string) (geo.Info, error)
}

// StatsSource reports matchmaking counters.
type StatsSource interface {
	Stats() session.Stats
}

// Handler handles the plain HTTP endpoints.
type Handler struct {
	locator Locator
	stats   StatsSource
	logger  *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(locator Locator, stats StatsSource, logger *zap.Logger) *Handler {
	return &Handler{
		locator: locator,
		stats:   stats,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /get_ip_info", h.handleIPInfo)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleIPInfo reports the caller's network info. Lookup failures become an
// error payload, not an HTTP error, so the page can render them inline.
func (h *Handler) handleIPInfo(w http.ResponseWriter, r *http.Request) {
	ip := geo.ClientIP(r)
	info, err := h.locator.Lookup(r.Context(), ip)
	if err != nil {
		h.logger.Warn("ip lookup failed", zap.String("ip", ip), zap.Error(err))
		h.respondJSON(w, map[string]string{"error": "Failed to get IP info"})
		return
	}
	h.respondJSON(w, info)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.stats.Stats())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("writing response", zap.Error(err))
	}
}

// CORSMiddleware allows cross-origin requests from any origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
