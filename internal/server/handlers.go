package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/client"
	"localcoder/internal/extract"
	"localcoder/internal/highlight"
	"localcoder/internal/logging"
	"localcoder/internal/prompts"
)

// previewCSP isolates generated pages from the API origin.
const previewCSP = "sandbox allow-scripts allow-forms allow-modals allow-popups"

// configResponse is what the UI needs to render its controls.
type configResponse struct {
	Version        string               `json:"version"`
	OutputTypes    []prompts.OutputType `json:"output_types"`
	Temperature    float32              `json:"temperature"`
	SearchEnabled  bool                 `json:"search_enabled"`
	DocumentsReady bool                 `json:"documents_enabled"`
	LibraryReady   bool                 `json:"library_enabled"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		Version:        s.cfg.Version,
		OutputTypes:    prompts.OutputTypes,
		Temperature:    s.cfg.Ollama.Temperature,
		SearchEnabled:  s.assistant.SearchEnabled(),
		DocumentsReady: s.documents != nil,
		LibraryReady:   s.library != nil,
	})
}

type modelsResponse struct {
	Models  []client.ModelInfo `json:"models"`
	Default string             `json:"default"`
	Error   string             `json:"error,omitempty"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	installed, err := s.backend.ListInstalled(r.Context())
	if err != nil {
		installed = nil
	}
	resp := modelsResponse{
		Models:  client.Reconcile(client.PredefinedModels, installed),
		Default: client.DefaultModel(installed, s.cfg.Ollama.DefaultModel),
	}
	if err != nil {
		logging.Warn("listing models failed", "error", err)
		resp.Error = "Ollama is not running. Please start Ollama first."
	}
	if resp.Default == "" && len(resp.Models) > 0 {
		resp.Default = resp.Models[0].ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prompts.QuickExamples())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

// generateRequest is the JSON body of generation endpoints.
type generateRequest struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url,omitempty"`
	assistant.Request
}

// generateResponse is the session state after a request.
type generateResponse struct {
	SessionID string `json:"session_id"`
	CodeHTML  string `json:"code_html,omitempty"`
	assistant.Response
}

func (s *Server) normalize(req assistant.Request) assistant.Request {
	req.OutputType = prompts.ParseOutputType(string(req.OutputType))
	if req.Temperature < 0 || req.Temperature > 2 {
		req.Temperature = s.cfg.Ollama.Temperature
	}
	return req
}

func (s *Server) respond(w http.ResponseWriter, sess *chat.Session, resp assistant.Response) {
	out := generateResponse{SessionID: sess.ID, Response: resp}
	if resp.Result.Code != "" {
		html, err := s.highlighter.HTML(resp.Result.Code, highlight.LanguageFor(resp.Result.OutputType))
		if err != nil {
			logging.Debug("highlighting failed", "error", err)
		} else {
			out.CodeHTML = html
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	resp := s.assistant.Generate(r.Context(), sess, s.normalize(req.Request))
	s.respond(w, sess, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	s.respond(w, sess, s.assistant.Clear(sess))
}

func (s *Server) handleRedesign(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	resp := s.assistant.Redesign(r.Context(), sess, req.URL, s.normalize(req.Request))
	s.respond(w, sess, resp)
}

// readImage reads the "image" part of a multipart request.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "an image file is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return nil, false
	}
	return data, true
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": s.assistant.ExtractText(r.Context(), image)})
}

func (s *Server) handleGenerateFromImage(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r)
	if !ok {
		return
	}

	req := assistant.Request{
		Model:        r.FormValue("model"),
		OutputType:   prompts.OutputType(r.FormValue("output_type")),
		EnableSearch: r.FormValue("enable_search") == "true",
		Temperature:  s.cfg.Ollama.Temperature,
	}
	if t, err := strconv.ParseFloat(r.FormValue("temperature"), 32); err == nil {
		req.Temperature = float32(t)
	}

	sess := s.sessions.GetOrCreate(r.FormValue("session_id"))
	resp := s.assistant.GenerateFromImage(r.Context(), sess, image, s.normalize(req))
	s.respond(w, sess, resp)
}

func (s *Server) handleSessionCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respond(w, sess, s.assistant.Snapshot(sess))
}

// handlePreview serves a generated file so the preview iframe can load the
// page and its sibling files by relative URL.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, ok := sess.Result()
	if !ok {
		http.NotFound(w, r)
		return
	}

	name := r.PathValue("file")
	if name == "" {
		name = extract.IndexHTML
	}
	content, ok := res.Files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Security-Policy", previewCSP)
	// Sandboxed pages have an opaque origin; module scripts need CORS.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, content)
}
