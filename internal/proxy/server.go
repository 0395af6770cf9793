// Package proxy exposes the canonical OpenAI-style chat completions
// surface and routes each request to one of the configured upstream
// provider families.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/qduc/chat-sub010/internal/adapter"
	"github.com/qduc/chat-sub010/internal/config"
	"github.com/qduc/chat-sub010/internal/models"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// maxBodyBytes limits the size of incoming request bodies.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// Server is the main HTTP server.
type Server struct {
	Config     *config.ServerConfig
	Upstream   *upstream.Client
	Registry   *models.Registry
	httpServer *http.Server

	adapters map[string]adapter.Adapter
}

// New creates a new server with all routes registered.
func New(cfg *config.ServerConfig) *Server {
	uc := upstream.NewClient(cfg.Verbose)
	s := &Server{
		Config:   cfg,
		Upstream: uc,
		Registry: models.NewRegistry(uc, cfg.Providers),
		adapters: map[string]adapter.Adapter{},
	}

	for name, pc := range cfg.Providers {
		a, ok := adapter.New(name, adapter.Options{
			BaseURL:      pc.BaseURL,
			APIKey:       pc.APIKey,
			DefaultModel: pc.DefaultModel,
		})
		if ok {
			s.adapters[name] = a
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("GET /v1/models", s.handleListModels)

	mux.HandleFunc("OPTIONS /", s.handleOptions)

	handler := corsMiddleware(verboseMiddleware(cfg, mux))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
