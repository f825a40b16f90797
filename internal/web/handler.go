// Package web exposes the query surface over HTTP: time+proximity
// search, radius-only nearby lookup, manual update triggers, the
// spreadsheet import trigger, and scheduler status. Responses are
// always a structured JSON payload; failures carry
// {"success": false, "error": "..."} and never a raw fault.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vietmass/churchfinder/internal/logger"
	"github.com/vietmass/churchfinder/internal/scheduler"
	"github.com/vietmass/churchfinder/internal/search"
	"github.com/vietmass/churchfinder/internal/updater"
)

// ImportFunc triggers a spreadsheet import and returns the count added.
type ImportFunc func(ctx context.Context) (int, error)

// Handler holds the HTTP handlers and their dependencies. importRun is
// nil when the spreadsheet integration is not configured.
type Handler struct {
	engine    *search.Engine
	updater   *updater.Updater
	scheduler *scheduler.Scheduler
	importRun ImportFunc
}

// New creates a Handler.
func New(engine *search.Engine, up *updater.Updater, sched *scheduler.Scheduler, importRun ImportFunc) *Handler {
	return &Handler{
		engine:    engine,
		updater:   up,
		scheduler: sched,
		importRun: importRun,
	}
}

// RegisterRoutes registers all HTTP routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/search", h.handleSearch)
	mux.HandleFunc("/default-churches", h.handleNearby)
	mux.HandleFunc("/update-database", h.handleUpdate)
	mux.HandleFunc("/import-from-sheets", h.handleImport)
	mux.HandleFunc("/update-status", h.handleStatus)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/metrics", h.handleMetrics)
}

type searchRequest struct {
	TimeSlot string   `json:"time_slot"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	RadiusKm float64  `json:"radius_km"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil || req.TimeSlot == "" {
		writeError(w, http.StatusBadRequest, "time_slot, lat and lng are required")
		return
	}

	results, err := h.engine.Search(req.TimeSlot, *req.Lat, *req.Lng, req.RadiusKm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"churches": results,
	})
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	results := h.engine.Nearby(*req.Lat, *req.Lng, req.RadiusKm)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"churches": results,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	// A triggered cycle runs on a detached context: once started it is
	// not cancellable by the requesting client going away.
	added, err := h.updater.Update(context.Background())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": formatAdded(added),
	})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if h.importRun == nil {
		writeError(w, http.StatusServiceUnavailable, "spreadsheet integration is not available")
		return
	}

	// Detached for the same reason as the update trigger.
	added, err := h.importRun(context.Background())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": formatAdded(added),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler is not available")
		return
	}

	next, ok := h.scheduler.NextRun()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"next_update": next.Format("2006-01-02 15:04:05"),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, logger.MetricsSnapshot())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func formatAdded(added int) string {
	if added == 1 {
		return "Added 1 new church to the database"
	}
	return fmt.Sprintf("Added %d new churches to the database", added)
}
