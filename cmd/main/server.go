package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/textfilters/pkg/renderstats"
	"github.com/CTAG07/textfilters/pkg/templating"
)

// PageInput is the data every page is executed with.
type PageInput struct {
	// Path is the request path.
	Path string
	// Query holds the first value of each query parameter.
	Query map[string]string
}

func newPageInput(r *http.Request) PageInput {
	query := make(map[string]string, len(r.URL.Query()))
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return PageInput{Path: r.URL.Path, Query: query}
}

// Server wires the template manager, the statistics store and the API handlers
// onto the public page mux and the API mux.
type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	tm          *templating.TemplateManager
	stats       *renderstats.Store
	authAPI     *AuthAPI
	templateAPI *TemplateAPI
	filtersAPI  *FiltersAPI
	statsAPI    *StatsAPI
	serverAPI   *ServerAPI
	pageMux     *http.ServeMux
	apiMux      *http.ServeMux
}

// NewServer builds a Server. The database schemas must already exist.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	tm, err := templating.NewTemplateManager(logger, config.Templates, config.Server.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}
	cm.SetTemplateManager(tm)

	stats, err := renderstats.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats store: %w", err)
	}

	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		tm:          tm,
		stats:       stats,
		authAPI:     NewAuthAPI(db, logger),
		templateAPI: NewTemplateAPI(tm, logger),
		filtersAPI:  NewFiltersAPI(tm, logger),
		statsAPI:    NewStatsAPI(stats, logger),
		serverAPI:   NewServerAPI(cm, actionChan, logger),
		pageMux:     http.NewServeMux(),
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.templateAPI.RegisterRoutes(apiMux)
	server.filtersAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Everything under /api/ is authenticated except the health check.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))

	server.pageMux.HandleFunc("GET /pages/{name}", server.handlePage)
	server.pageMux.HandleFunc("GET /healthz", server.serverAPI.handleHealthCheck)

	return server, nil
}

// Close releases the resources owned by the Server. The database stays open.
func (s *Server) Close() {
	s.stats.Close()
}

// handlePage renders {name}.tmpl.html and records the render.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || strings.Contains(name, "..") || strings.HasSuffix(name, ".html") {
		http.NotFound(w, r)
		return
	}
	templateName := name + ".tmpl.html"
	if !s.tm.HasPage(templateName) {
		s.logger.Debug("Requested page does not exist", "template", templateName)
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	start := time.Now()
	err := s.tm.Execute(&buf, templateName, newPageInput(r))
	elapsed := time.Since(start)

	if recErr := s.stats.Record(r.Context(), renderstats.Render{
		Template: templateName,
		Bytes:    buf.Len(),
		Duration: elapsed,
		Err:      err,
	}); recErr != nil {
		s.logger.Warn("Failed to record render stats", "template", templateName, "error", recErr)
	}

	if err != nil {
		s.logger.Error("Failed to execute template", "template", templateName, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("Serving page", "template", templateName, "bytes", buf.Len(), "duration", elapsed)
	s.setPageHeaders(w)
	_, _ = buf.WriteTo(w)
}

func (s *Server) setPageHeaders(w http.ResponseWriter) {
	config := s.cm.Get()
	for key, value := range config.Server.PageHeaders {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
}
