package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/textfilters/pkg/renderstats"
)

const defaultTopLimit = 100

// StatsAPI holds the dependencies for the render statistics handlers.
type StatsAPI struct {
	store  *renderstats.Store
	logger *slog.Logger
}

// NewStatsAPI creates a new instance of the StatsAPI.
func NewStatsAPI(store *renderstats.Store, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/stats endpoints.
func (a *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", a.handleSummary)
	mux.HandleFunc("/api/stats/templates", a.handleTemplates)
	mux.HandleFunc("/api/stats/reset", a.handleReset)
}

func (a *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeStatsRead) {
		return
	}

	summary, err := a.store.Summary(r.Context())
	if err != nil {
		a.logger.Error("Failed to query stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// handleTemplates returns the most rendered templates, or a single one when the
// "name" query parameter is set.
func (a *StatsAPI) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeStatsRead) {
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		stats, err := a.store.Get(r.Context(), name)
		if err != nil {
			if errors.Is(err, renderstats.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "No statistics for template")
				return
			}
			a.logger.Error("Failed to query template stats", "template", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Database query failed")
			return
		}
		respondWithJSON(w, http.StatusOK, stats)
		return
	}

	limit := defaultTopLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	top, err := a.store.Top(r.Context(), limit)
	if err != nil {
		a.logger.Error("Failed to query top templates", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, top)
}

func (a *StatsAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeStatsWrite) {
		return
	}

	if err := a.store.Reset(r.Context()); err != nil {
		a.logger.Error("Failed to reset stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to reset statistics")
		return
	}
	a.logger.Warn("Render statistics reset via API")
	w.WriteHeader(http.StatusNoContent)
}
