// Package shell serves the browser front end: a health check, a stateless
// clause search endpoint, and one websocket per open tab that owns a chat
// session and a drafting workspace.
package shell

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/lexdraft/internal/clauses"
	"github.com/ziadkadry99/lexdraft/internal/conversation"
	"github.com/ziadkadry99/lexdraft/internal/workspace"
)

// Backend is everything a shell connection calls on the drafting backend.
// *backend.Client satisfies it.
type Backend interface {
	conversation.Backend
	clauses.Backend
	workspace.Backend
}

// Config holds shell configuration.
type Config struct {
	Port         int
	AllowAll     bool // allow all CORS origins (dev mode)
	ResultCount  int
	ClauseTopK   int
	Jurisdiction string
	ExportFormat string
}

// Shell is the browser shell HTTP server.
type Shell struct {
	cfg        Config
	client     Backend
	searcher   *clauses.Searcher
	router     chi.Router
	httpServer *http.Server
}

// New creates a shell that talks to client.
func New(cfg Config, client Backend) *Shell {
	s := &Shell{
		cfg:      cfg,
		client:   client,
		searcher: clauses.NewSearcher(client, cfg.ClauseTopK),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Shell) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", s.serveIndex)
	r.With(middleware.Timeout(2*time.Minute)).Post("/api/shell/clauses", s.handleClauseSearch)
	// The websocket is long-lived, so it sits outside the timeout middleware.
	r.Get("/ws/session", s.handleWebSocket)

	return r
}

// Router returns the chi router.
func (s *Shell) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Shell) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("lexdraft shell listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Shell) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
