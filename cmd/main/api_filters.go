package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/CTAG07/textfilters/pkg/templating"
	"github.com/CTAG07/textfilters/pkg/textfilter"
)

// FiltersAPI exposes the text filters outside of templates.
type FiltersAPI struct {
	tm     *templating.TemplateManager
	logger *slog.Logger
}

// FilterList is the response of GET /api/filters.
type FilterList struct {
	Filters    []string `json:"filters"`
	Algorithms []string `json:"hash_algorithms"`
}

// ApplyRequest is the expected JSON body for POST /api/filters/apply.
// Args are the filter's own arguments in template order.
type ApplyRequest struct {
	Filter string   `json:"filter"`
	Input  string   `json:"input"`
	Args   []string `json:"args"`
}

// ApplyResponse is the JSON response of a successful apply. Output that is not
// valid UTF-8 (a raw hash digest) is sent base64 encoded with Encoding set to
// "base64", since JSON strings cannot carry arbitrary bytes.
type ApplyResponse struct {
	Output   string `json:"output"`
	Encoding string `json:"encoding,omitempty"`
}

func newApplyResponse(out string) ApplyResponse {
	if utf8.ValidString(out) {
		return ApplyResponse{Output: out}
	}
	return ApplyResponse{
		Output:   base64.StdEncoding.EncodeToString([]byte(out)),
		Encoding: "base64",
	}
}

// NewFiltersAPI creates a new instance of the FiltersAPI.
func NewFiltersAPI(tm *templating.TemplateManager, logger *slog.Logger) *FiltersAPI {
	return &FiltersAPI{
		tm:     tm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/filters endpoints.
func (f *FiltersAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/filters", f.handleList)
	mux.HandleFunc("/api/filters/apply", f.handleApply)
}

func (f *FiltersAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeFiltersRead) {
		return
	}
	respondWithJSON(w, http.StatusOK, FilterList{
		Filters:    f.tm.FilterNames(),
		Algorithms: textfilter.Algorithms(),
	})
}

func (f *FiltersAPI) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeFiltersUse) {
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Filter == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'filter' is required")
		return
	}

	out, err := f.tm.ApplyFilter(req.Filter, req.Input, req.Args...)
	if err != nil {
		if errors.Is(err, textfilter.ErrUnknownFilter) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		f.logger.Debug("Filter apply failed", "filter", req.Filter, "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, newApplyResponse(out))
}
