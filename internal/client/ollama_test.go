package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOllama struct {
	chatFailures atomic.Int32
	lastChat     map[string]any
	authHeader   string
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		f.authHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"models":[{"name":"codellama:7b"},{"name":"llava:13b"}]}`))
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastChat = body

		if f.chatFailures.Load() > 0 {
			f.chatFailures.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"server busy"}` + "\n"))
			return
		}
		if body["model"] == "missing:1b" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'missing:1b' not found"}` + "\n"))
			return
		}

		if stream, _ := body["stream"].(bool); stream {
			for _, part := range []string{"Hel", "lo"} {
				_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"` + part + `"},"done":false}` + "\n"))
			}
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true,"eval_count":2}` + "\n"))
			return
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Hello"},"done":true}` + "\n"))
	})
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		resp := struct {
			Embeddings [][]float32 `json:"embeddings"`
		}{}
		for i := range body.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(i), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeOllama, apiKey string) *OllamaClient {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewOllamaClient(OllamaConfig{
		BaseURL:      srv.URL,
		APIKey:       apiKey,
		DefaultModel: "codellama:7b",
		Retry:        RetryConfig{MaxRetries: 2, RetryDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

func TestChat(t *testing.T) {
	f := &fakeOllama{}
	c := newTestClient(t, f, "")

	reply, err := c.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi", Images: [][]byte{[]byte("png")}},
		},
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)

	assert.Equal(t, "codellama:7b", f.lastChat["model"])
	opts := f.lastChat["options"].(map[string]any)
	assert.InDelta(t, 0.3, opts["temperature"], 1e-6)
	msgs := f.lastChat["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[1].(map[string]any)["images"])
}

func TestChatRetriesTransientErrors(t *testing.T) {
	f := &fakeOllama{}
	f.chatFailures.Store(2)
	c := newTestClient(t, f, "")

	reply, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, int32(0), f.chatFailures.Load())
}

func TestChatRetriesExhausted(t *testing.T) {
	f := &fakeOllama{}
	f.chatFailures.Store(10)
	c := newTestClient(t, f, "")

	_, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
}

func TestChatModelNotInstalled(t *testing.T) {
	c := newTestClient(t, &fakeOllama{}, "")

	_, err := c.Chat(context.Background(), ChatRequest{Model: "missing:1b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model 'missing:1b' is not installed")
	assert.True(t, IsModelNotFoundError(err))
}

func TestChatStream(t *testing.T) {
	c := newTestClient(t, &fakeOllama{}, "")

	sr, err := c.ChatStream(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	var parts []string
	text, err := ProcessStream(context.Background(), sr, &StreamHandler{
		OnText: func(s string) { parts = append(parts, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []string{"Hel", "lo"}, parts)
}

func TestListModelsAndAuth(t *testing.T) {
	f := &fakeOllama{}
	c := newTestClient(t, f, "secret")

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"codellama:7b", "llava:13b"}, models)
	assert.Equal(t, "Bearer secret", f.authHeader)

	ok, err := c.IsModelAvailable(context.Background(), "llava")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.IsModelAvailable(context.Background(), "mistral")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Healthcheck(context.Background()))
}

func TestEmbed(t *testing.T) {
	c := newTestClient(t, &fakeOllama{}, "")

	vecs, err := c.Embed(context.Background(), "all-minilm", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 1}, vecs[2])

	vecs, err = c.Embed(context.Background(), "all-minilm", nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestConnectionRefusedIsFriendly(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: addr, DefaultModel: "x", Retry: RetryConfig{RetryDelay: time.Millisecond}})
	require.NoError(t, err)

	err = c.Healthcheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ollama server is not running")
}

func TestNewOllamaClientRejectsBadURL(t *testing.T) {
	_, err := NewOllamaClient(OllamaConfig{BaseURL: "localhost"})
	assert.Error(t, err)
}

func TestCalculateBackoff(t *testing.T) {
	for attempt := 0; attempt < 4; attempt++ {
		d := CalculateBackoff(100*time.Millisecond, attempt, time.Second)
		base := 100 * time.Millisecond * time.Duration(1<<attempt)
		if base > time.Second {
			base = time.Second
		}
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/4)
	}
	assert.Equal(t, time.Duration(0), CalculateBackoff(0, 0, 0))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(assert.AnError))
	assert.True(t, IsRetryableError(errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")))
	assert.True(t, IsRetryableError(api.StatusError{StatusCode: 503}))
	assert.False(t, IsRetryableError(api.StatusError{StatusCode: 400}))
}
