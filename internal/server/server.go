package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/OfonoA/campusGuide1/internal/config"
	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/feedback"
	"github.com/OfonoA/campusGuide1/internal/reinforcement"
	"github.com/OfonoA/campusGuide1/internal/tickets"
	"github.com/OfonoA/campusGuide1/internal/vectordb"
)

// Server exposes the core operations to the HTTP layer: feedback
// submission, staff ticket handling, reinforcement administration and
// knowledge search.
type Server struct {
	cfg        *config.Config
	db         *db.DB
	index      *vectordb.Index
	gate       *feedback.Gate
	lifecycle  *tickets.Lifecycle
	engine     *reinforcement.Engine
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies wired.
func New(cfg *config.Config, database *db.DB, index *vectordb.Index, lifecycle *tickets.Lifecycle, engine *reinforcement.Engine) *Server {
	s := &Server{
		cfg:       cfg,
		db:        database,
		index:     index,
		gate:      feedback.NewGate(database),
		lifecycle: lifecycle,
		engine:    engine,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/knowledge/search", s.handleSearch)

	feedback.RegisterRoutes(r, s.gate)
	tickets.RegisterRoutes(r, tickets.NewStore(s.db), s.lifecycle)
	reinforcement.RegisterRoutes(r, s.engine)

	return r
}

// handleSearch answers the knowledge query interface the chat layer calls.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	k := s.cfg.SearchResults
	if v := r.URL.Query().Get("k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			k = n
		}
	}

	passages, err := s.index.Search(r.Context(), query, k)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if passages == nil {
		passages = []vectordb.Passage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"query": query, "passages": passages})
}

// Router returns the chi router, useful in tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("campusguide server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
