package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"localcoder/internal/chat"
	"localcoder/internal/logging"
	"localcoder/internal/rag"
)

type ragStatus struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
}

// handleRAGDocuments indexes the uploaded files and attaches the resulting
// chain to the session.
func (s *Server) handleRAGDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		writeError(w, http.StatusNotFound, "document question answering is not configured")
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	sess := s.sessions.GetOrCreate(r.FormValue("session_id"))

	var uploads []*multipart.FileHeader
	if r.MultipartForm != nil {
		uploads = r.MultipartForm.File["files"]
	}

	dir, err := os.MkdirTemp("", "localcoder-docs-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store uploads")
		return
	}
	defer os.RemoveAll(dir)

	paths, err := saveUploads(dir, uploads)
	if err != nil {
		logging.Warn("saving uploads failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chain, status := s.documents.Process(r.Context(), paths)
	if chain != nil {
		sess.SetDocumentQA(chain)
	}
	writeJSON(w, http.StatusOK, ragStatus{SessionID: sess.ID, Status: status, Ready: chain != nil})
}

// saveUploads writes each upload into dir under its base name.
func saveUploads(dir string, uploads []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for i, fh := range uploads {
		name := filepath.Base(filepath.Clean("/" + fh.Filename))
		if name == "/" || name == "." {
			name = fmt.Sprintf("upload-%d.txt", i)
		}
		// Same-named uploads get their own subdirectory
		target := filepath.Join(dir, fmt.Sprintf("%03d", i), name)
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return nil, err
		}

		if err := copyUpload(fh, target); err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

func copyUpload(fh *multipart.FileHeader, target string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// handleRAGLibrary attaches a chain over the watched document library.
func (s *Server) handleRAGLibrary(w http.ResponseWriter, r *http.Request) {
	if s.library == nil {
		writeError(w, http.StatusNotFound, "no document library is configured")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := s.sessions.GetOrCreate(req.SessionID)

	count, err := s.library.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, ragStatus{SessionID: sess.ID, Status: "Processing error: " + err.Error()})
		return
	}
	if count == 0 {
		writeJSON(w, http.StatusOK, ragStatus{SessionID: sess.ID, Status: "The document library is empty."})
		return
	}

	rc := s.cfg.RAG
	conn := rag.CheckConnection(r.Context(), s.backend, rc.Model, rc.PreferredModels)
	if !conn.OK {
		writeJSON(w, http.StatusOK, ragStatus{SessionID: sess.ID, Status: "Ollama connection failed: " + conn.Message})
		return
	}

	sess.SetDocumentQA(s.library.Chain(s.backend, rag.ChainConfig{
		Model:       conn.Model,
		Temperature: rc.Temperature,
		TopK:        rc.TopK,
	}))
	writeJSON(w, http.StatusOK, ragStatus{
		SessionID: sess.ID,
		Status:    fmt.Sprintf("Library connected (%d chunks). Ready for questions.", count),
		Ready:     true,
	})
}

// handleRAGAsk answers a question over the session's documents, streaming
// the answer as server-sent events with a typing effect. Each "delta" event
// carries the next characters; a final "done" event carries the transcript.
func (s *Server) handleRAGAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	qa := sess.DocumentQA()
	if qa == nil {
		writeError(w, http.StatusConflict, rag.StatusNoFiles)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := qa.Ask(r.Context(), question)
	if err != nil {
		logging.Warn("document question failed", "error", err)
		answer = "Error: " + err.Error()
	}
	sess.AppendQATurn(chat.Turn{User: question, Assistant: answer})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	sent := 0
	err = rag.Type(r.Context(), answer, s.cfg.RAG.TypingDelay, func(partial string) error {
		delta := partial[sent:]
		sent = len(partial)
		if err := writeEvent(w, "delta", map[string]string{"content": delta}); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		logging.Debug("answer stream stopped", "error", err)
		return
	}

	_ = writeEvent(w, "done", map[string]any{
		"answer":   answer,
		"messages": chat.ChatbotMessages(sess.QAHistory()),
	})
	_ = rc.Flush()
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
