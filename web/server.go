package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"classic-hunt/config"
	"classic-hunt/models"
	"classic-hunt/storage"
	"classic-hunt/utils"
)

// Server serves the dashboard, the report archive and a small JSON API
// over the persisted listing data.
type Server struct {
	cfg     *config.Settings
	hunt    *config.Hunt
	records storage.RecordStore
	reports *storage.ReportStore
	logger  *utils.Logger
	srv     *http.Server
}

// NewServer creates the HTTP server with its routes wired.
func NewServer(cfg *config.Settings, hunt *config.Hunt, records storage.RecordStore, reports *storage.ReportStore, logger *utils.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		hunt:    hunt,
		records: records,
		reports: reports,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", s.handleListings)
		r.Get("/reports", s.handleReportList)
		r.Get("/reports/{name}", s.handleReport)
	})

	s.srv = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Dashboard server listening on %s", s.cfg.HTTP.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sets, err := s.loadSets()
	if err != nil {
		s.logger.Error("Dashboard: %v", err)
		http.Error(w, "failed to load listings", http.StatusInternalServerError)
		return
	}
	html, err := RenderDashboard(sets, s.hunt.NewListingDays, time.Now())
	if err != nil {
		s.logger.Error("Dashboard: %v", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListings returns the active records for every tracked model.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	sets, err := s.loadSets()
	if err != nil {
		s.logger.Error("Listings: %v", err)
		http.Error(w, "failed to load listings", http.StatusInternalServerError)
		return
	}
	out := make(map[string]models.RecordSet, len(sets))
	for key, set := range sets {
		out[key.Label()] = set.Active()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	names, err := s.reports.ListNames()
	if err != nil {
		s.logger.Error("Report list: %v", err)
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	content, err := s.reports.Read(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content.Content))
}

// loadSets loads every persisted record set, not just the currently enabled
// models: a search disabled after a few runs still has history worth
// browsing.
func (s *Server) loadSets() (map[models.ModelKey]models.RecordSet, error) {
	keys, err := s.records.Keys()
	if err != nil {
		return nil, err
	}
	sets := make(map[models.ModelKey]models.RecordSet, len(keys))
	for _, key := range keys {
		set, err := s.records.Load(key)
		if err != nil {
			return nil, err
		}
		sets[key] = set
	}
	return sets, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
