// Package server serves the browser UI and its JSON API.
//
// Endpoints:
//   - GET  /api/config                  - UI settings
//   - GET  /api/models                  - model picker entries
//   - GET  /api/examples                - quick example prompts
//   - POST /api/sessions                - new chat session
//   - POST /api/generate                - chat and generate code
//   - POST /api/clear                   - clear chat and code
//   - POST /api/ocr                     - extract text from an image
//   - POST /api/generate-from-image     - generate a page from an image
//   - POST /api/redesign                - redesign a web page
//   - GET  /api/sessions/{id}/code      - latest code of a session
//   - GET  /preview/{id}/{file...}      - serve generated files
//   - POST /api/rag/documents           - index uploaded documents
//   - POST /api/rag/library             - ask the watched document library
//   - POST /api/rag/ask                 - answer a question (server-sent events)
//   - GET  /healthz                     - health check
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/config"
	"localcoder/internal/highlight"
	"localcoder/internal/logging"
	"localcoder/internal/rag"
	"localcoder/internal/ratelimit"
)

// Backend is the model server.
type Backend interface {
	rag.Backend
	ListInstalled(ctx context.Context) ([]string, error)
}

// Options are the server's dependencies. Documents and Library may be nil.
type Options struct {
	Config      *config.Config
	Backend     Backend
	Assistant   *assistant.Assistant
	Sessions    *chat.Store
	Documents   *rag.Pipeline
	Library     *rag.Library
	Highlighter *highlight.Highlighter
	Limiter     *ratelimit.Limiter
}

// Server is the HTTP server for the browser UI.
type Server struct {
	cfg         *config.Config
	backend     Backend
	assistant   *assistant.Assistant
	sessions    *chat.Store
	documents   *rag.Pipeline
	library     *rag.Library
	highlighter *highlight.Highlighter
	limiter     *ratelimit.Limiter

	mux     *http.ServeMux
	handler http.Handler
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	hl := opts.Highlighter
	if hl == nil {
		hl = highlight.New("")
	}

	s := &Server{
		cfg:         cfg,
		backend:     opts.Backend,
		assistant:   opts.Assistant,
		sessions:    opts.Sessions,
		documents:   opts.Documents,
		library:     opts.Library,
		highlighter: hl,
		limiter:     opts.Limiter,
		mux:         http.NewServeMux(),
	}
	s.routes()

	s.handler = Chain(
		Recovery(),
		Logging(),
		RateLimit(s.limiter),
		BodyLimit(cfg.Server.MaxUploadBytes),
	)(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/config", s.handleConfig)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET /api/examples", s.handleExamples)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}/code", s.handleSessionCode)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)
	s.mux.HandleFunc("POST /api/ocr", s.handleOCR)
	s.mux.HandleFunc("POST /api/generate-from-image", s.handleGenerateFromImage)
	s.mux.HandleFunc("POST /api/redesign", s.handleRedesign)
	s.mux.HandleFunc("GET /preview/{id}/{file...}", s.handlePreview)

	s.mux.HandleFunc("POST /api/rag/documents", s.handleRAGDocuments)
	s.mux.HandleFunc("POST /api/rag/library", s.handleRAGLibrary)
	s.mux.HandleFunc("POST /api/rag/ask", s.handleRAGAsk)

	s.mux.Handle("GET /", staticHandler())
}

// Handler returns the server's handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server started", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	if s.limiter != nil {
		go s.cleanupLimiter(ctx)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logging.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.limiter.Cleanup(); n > 0 {
				logging.Debug("rate limiter cleanup", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleHealth reports whether the model server is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "ollama": "ok", "sessions": s.sessions.Len()}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.backend.ListModels(ctx); err != nil {
		status["status"] = "degraded"
		status["ollama"] = "unavailable"
	}
	writeJSON(w, http.StatusOK, status)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to write response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into v, writing the error response
// itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
