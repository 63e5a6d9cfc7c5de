package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/client"
	"localcoder/internal/config"
	"localcoder/internal/rag"
	"localcoder/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	models  []string
	listErr error
	reply   string
	chats   int
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]string, error) {
	return f.models, f.listErr
}

func (f *fakeBackend) ListInstalled(ctx context.Context) ([]string, error) {
	return f.models, f.listErr
}

func (f *fakeBackend) Chat(ctx context.Context, req client.ChatRequest) (string, error) {
	f.chats++
	return f.reply, nil
}

type fakeOCR struct{ text string }

func (f fakeOCR) Name() string { return "fake" }

func (f fakeOCR) Extract(ctx context.Context, image []byte) (string, error) {
	return f.text, nil
}

// lengthEmbedder embeds a text by its length and word count.
type lengthEmbedder struct{}

func (lengthEmbedder) Model() string { return "length" }

func (lengthEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(len(strings.Fields(t))), 1}
	}
	return out, nil
}

type fakeQA struct {
	answer string
	err    error
	closed bool
}

func (q *fakeQA) Ask(ctx context.Context, question string) (string, error) {
	return q.answer, q.err
}

func (q *fakeQA) Close() error {
	q.closed = true
	return nil
}

type testEnv struct {
	srv      *httptest.Server
	backend  *fakeBackend
	sessions *chat.Store
	cfg      *config.Config
}

func newTestEnv(t *testing.T, mutate func(*config.Config, *Options)) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Version = "test"
	cfg.RAG.TypingDelay = 0

	backend := &fakeBackend{
		models: []string{"codellama:7b", "llama3.1:8b"},
		reply:  "```html\n<html><body><h1>Hi</h1></body></html>\n```",
	}
	sessions := chat.NewStore(16, config.DefaultSessionTTL, 0)
	t.Cleanup(sessions.Close)

	opts := Options{
		Config:    cfg,
		Backend:   backend,
		Assistant: assistant.New(backend, assistant.WithOCR(fakeOCR{text: "Pricing"})),
		Sessions:  sessions,
		Documents: rag.NewPipeline(cfg.RAG, backend, lengthEmbedder{}, nil),
	}
	if mutate != nil {
		mutate(cfg, &opts)
	}

	srv := httptest.NewServer(New(opts).Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, backend: backend, sessions: sessions, cfg: cfg}
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) newSession(t *testing.T) string {
	resp := e.postJSON(t, "/api/sessions", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]string](t, resp)["session_id"]
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestStaticUI(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	assert.Equal(t, http.StatusOK, env.get(t, "/app.js").StatusCode)
	assert.Equal(t, http.StatusOK, env.get(t, "/style.css").StatusCode)
}

func TestConfigAndExamples(t *testing.T) {
	env := newTestEnv(t, nil)

	cfg := decode[configResponse](t, env.get(t, "/api/config"))
	assert.Equal(t, "test", cfg.Version)
	assert.False(t, cfg.SearchEnabled)
	assert.True(t, cfg.DocumentsReady)
	assert.False(t, cfg.LibraryReady)
	assert.Len(t, cfg.OutputTypes, 6)

	examples := decode[[]map[string]string](t, env.get(t, "/api/examples"))
	assert.NotEmpty(t, examples)
	assert.NotEmpty(t, examples[0]["title"])
}

func TestModels(t *testing.T) {
	env := newTestEnv(t, nil)

	models := decode[modelsResponse](t, env.get(t, "/api/models"))
	require.Len(t, models.Models, 2)
	assert.Equal(t, "codellama:7b", models.Models[0].ID)
	assert.Equal(t, "codellama:7b", models.Default)
	assert.Empty(t, models.Error)

	env.backend.listErr = errors.New("connection refused")
	models = decode[modelsResponse](t, env.get(t, "/api/models"))
	assert.Equal(t, client.PredefinedModels, models.Models)
	assert.NotEmpty(t, models.Error)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	health := decode[map[string]any](t, env.get(t, "/healthz"))
	assert.Equal(t, "ok", health["status"])

	env.backend.listErr = errors.New("down")
	health = decode[map[string]any](t, env.get(t, "/healthz"))
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, "unavailable", health["ollama"])
}

func TestGenerateAndPreview(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	resp := env.postJSON(t, "/api/generate", map[string]any{
		"session_id":  id,
		"message":     "a landing page",
		"model":       "codellama:7b",
		"temperature": 0.5,
		"output_type": "HTML",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[generateResponse](t, resp)

	assert.Equal(t, id, out.SessionID)
	assert.Equal(t, "<html><body><h1>Hi</h1></body></html>", out.Result.Code)
	assert.Equal(t, out.Result.Code, out.Preview)
	assert.Contains(t, out.CodeHTML, "<pre")
	require.Len(t, out.Messages, 2)

	preview := env.get(t, "/preview/"+id+"/")
	require.Equal(t, http.StatusOK, preview.StatusCode)
	assert.Contains(t, preview.Header.Get("Content-Type"), "text/html")
	assert.Equal(t, previewCSP, preview.Header.Get("Content-Security-Policy"))
	var body bytes.Buffer
	_, _ = body.ReadFrom(preview.Body)
	assert.Equal(t, out.Result.Code, body.String())

	assert.Equal(t, http.StatusNotFound, env.get(t, "/preview/"+id+"/index.js").StatusCode)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/preview/unknown/").StatusCode)

	code := decode[generateResponse](t, env.get(t, "/api/sessions/"+id+"/code"))
	assert.Equal(t, out.Result.Code, code.Result.Code)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/sessions/unknown/code").StatusCode)
}

func TestGenerateCreatesSessionWhenUnknown(t *testing.T) {
	env := newTestEnv(t, nil)

	out := decode[generateResponse](t, env.postJSON(t, "/api/generate", map[string]any{"message": "page"}))
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, 1, env.sessions.Len())
}

func TestGenerateRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Post(env.srv.URL+"/api/generate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClear(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	env.postJSON(t, "/api/generate", map[string]any{"session_id": id, "message": "page"})
	out := decode[generateResponse](t, env.postJSON(t, "/api/clear", map[string]any{"session_id": id}))
	assert.Empty(t, out.Messages)
	assert.Empty(t, out.Result.Code)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/preview/"+id+"/").StatusCode)
}

func TestRedesignRequiresURL(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.postJSON(t, "/api/redesign", map[string]any{"session_id": env.newSession(t)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOCRAndGenerateFromImage(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	body, ctype := multipartBody(t, nil, "image", "shot.png", []byte("png"))
	resp, err := http.Post(env.srv.URL+"/api/ocr", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "Pricing", decode[map[string]string](t, resp)["text"])

	body, ctype = multipartBody(t, map[string]string{
		"session_id":  id,
		"output_type": "HTML",
		"temperature": "0.3",
	}, "image", "shot.png", []byte("png"))
	resp2, err := http.Post(env.srv.URL+"/api/generate-from-image", ctype, body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	out := decode[generateResponse](t, resp2)
	assert.Equal(t, id, out.SessionID)
	assert.NotEmpty(t, out.Preview)

	body, ctype = multipartBody(t, map[string]string{"session_id": id}, "", "", nil)
	resp3, err := http.Post(env.srv.URL+"/api/ocr", ctype, body)
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestRAGDocumentsAndAsk(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)

	body, ctype := multipartBody(t, map[string]string{"session_id": id}, "files", "notes.txt",
		[]byte("Dogs bark at the mailman because he approaches the house every day."))
	resp, err := http.Post(env.srv.URL+"/api/rag/documents", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	status := decode[ragStatus](t, resp)
	assert.True(t, status.Ready)
	assert.Equal(t, rag.StatusReady, status.Status)

	env.backend.reply = "Because he comes daily."
	ask := env.postJSON(t, "/api/rag/ask", map[string]string{"session_id": id, "question": "Why do dogs bark?"})
	require.Equal(t, http.StatusOK, ask.StatusCode)
	assert.Equal(t, "text/event-stream", ask.Header.Get("Content-Type"))

	deltas, done := readEvents(t, ask)
	assert.Equal(t, "Because he comes daily.", deltas)
	assert.Equal(t, "Because he comes daily.", done["answer"])

	sess, ok := env.sessions.Get(id)
	require.True(t, ok)
	assert.Equal(t, chat.History{{User: "Why do dogs bark?", Assistant: "Because he comes daily."}}, sess.QAHistory())
}

func TestRAGDocumentsWithoutFiles(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ctype := multipartBody(t, map[string]string{"session_id": env.newSession(t)}, "", "", nil)
	resp, err := http.Post(env.srv.URL+"/api/rag/documents", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	status := decode[ragStatus](t, resp)
	assert.False(t, status.Ready)
	assert.Equal(t, rag.StatusNoFiles, status.Status)
}

func TestRAGAskStreamsErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.newSession(t)
	sess, _ := env.sessions.Get(id)
	sess.SetDocumentQA(&fakeQA{err: errors.New("model unavailable")})

	deltas, _ := readEvents(t, env.postJSON(t, "/api/rag/ask", map[string]string{"session_id": id, "question": "q"}))
	assert.Equal(t, "Error: model unavailable", deltas)
}

func TestRAGAskWithoutDocuments(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.postJSON(t, "/api/rag/ask", map[string]string{"session_id": env.newSession(t), "question": "q"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, rag.StatusNoFiles, decode[map[string]string](t, resp)["error"])
}

func TestRAGLibraryNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.postJSON(t, "/api/rag/library", map[string]string{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, o *Options) {
		o.Limiter = ratelimit.NewLimiter(ratelimit.Config{Enabled: true, RequestsPerMinute: 1, BurstSize: 1})
	})

	assert.Equal(t, http.StatusOK, env.get(t, "/api/config").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, env.get(t, "/api/config").StatusCode)
	// Non-API paths are not limited
	assert.Equal(t, http.StatusOK, env.get(t, "/healthz").StatusCode)
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, o *Options) {
		cfg.Server.MaxUploadBytes = 64
	})

	resp := env.postJSON(t, "/api/generate", map[string]string{"message": strings.Repeat("x", 200)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	sessions := chat.NewStore(1, config.DefaultSessionTTL, 0)
	defer sessions.Close()

	s := New(Options{Config: cfg, Backend: &fakeBackend{}, Assistant: assistant.New(&fakeBackend{}), Sessions: sessions})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

// readEvents collects the "delta" contents and the "done" payload of an
// event stream.
func readEvents(t *testing.T, resp *http.Response) (string, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	var deltas strings.Builder
	var done map[string]any
	for _, raw := range strings.Split(buf.String(), "\n\n") {
		if raw == "" {
			continue
		}
		lines := strings.SplitN(raw, "\n", 2)
		require.Len(t, lines, 2)
		event := strings.TrimPrefix(lines[0], "event: ")
		data := strings.TrimPrefix(lines[1], "data: ")

		switch event {
		case "delta":
			var payload map[string]string
			require.NoError(t, json.Unmarshal([]byte(data), &payload))
			deltas.WriteString(payload["content"])
		case "done":
			require.NoError(t, json.Unmarshal([]byte(data), &done))
		}
	}
	return deltas.String(), done
}
