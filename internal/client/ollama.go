package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"localcoder/internal/logging"

	"github.com/ollama/ollama/api"
)

// OllamaConfig holds configuration for the Ollama API client.
type OllamaConfig struct {
	BaseURL      string        // Default: "http://localhost:11434"
	APIKey       string        // Optional, for remote Ollama servers with auth
	DefaultModel string        // Used when a request names no model
	HTTPTimeout  time.Duration // HTTP request timeout (default: 300s)
	Retry        RetryConfig
}

// Message is one chat message sent to the model.
type Message struct {
	Role    string   `json:"role"` // system, user, assistant
	Content string   `json:"content"`
	Images  [][]byte `json:"-"`
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
}

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// authTransport adds Authorization header to HTTP requests.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(reqClone)
}

// NewOllamaClient creates a new Ollama API client.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 300 * time.Second
	}
	if config.Retry.RetryDelay == 0 {
		config.Retry.RetryDelay = 1 * time.Second
	}
	if config.Retry.MaxDelay == 0 {
		config.Retry.MaxDelay = 30 * time.Second
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid BaseURL %q: scheme and host are required", config.BaseURL)
	}

	// Warn if using unencrypted HTTP to a non-localhost host
	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host",
				"host", host,
				"recommendation", "use HTTPS for remote Ollama servers")
		}
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout}
	if config.APIKey != "" {
		httpClient.Transport = &authTransport{
			base:   http.DefaultTransport,
			apiKey: config.APIKey,
		}
	}

	return &OllamaClient{
		client: api.NewClient(baseURL, httpClient),
		config: config,
	}, nil
}

// DefaultModel returns the model used when a request names none.
func (c *OllamaClient) DefaultModel() string {
	return c.config.DefaultModel
}

func (c *OllamaClient) buildRequest(req ChatRequest, stream bool) (*api.ChatRequest, error) {
	model := req.Model
	if model == "" {
		model = c.config.DefaultModel
	}
	if model == "" {
		return nil, errors.New("model name is required")
	}

	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := api.Message{Role: m.Role, Content: m.Content}
		for _, img := range m.Images {
			msg.Images = append(msg.Images, api.ImageData(img))
		}
		messages = append(messages, msg)
	}

	return &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}, nil
}

// Chat sends a non-streaming chat request and returns the full reply.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	apiReq, err := c.buildRequest(req, false)
	if err != nil {
		return "", err
	}

	var reply string
	err = c.withRetry(ctx, apiReq.Model, func() error {
		var sb strings.Builder
		err := c.client.Chat(ctx, apiReq, func(resp api.ChatResponse) error {
			sb.WriteString(resp.Message.Content)
			return nil
		})
		if err != nil {
			return err
		}
		reply = sb.String()
		return nil
	})
	if err != nil {
		return "", err
	}

	logging.Debug("chat completed", "model", apiReq.Model, "reply_len", len(reply))
	return reply, nil
}

// ChatStream sends a streaming chat request. Errors after the stream has
// started arrive as the final chunk.
func (c *OllamaClient) ChatStream(ctx context.Context, req ChatRequest) (*StreamingResponse, error) {
	apiReq, err := c.buildRequest(req, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan ResponseChunk, 10)
	done := make(chan struct{})

	go func() {
		defer close(chunks)
		defer close(done)

		err := c.client.Chat(ctx, apiReq, func(resp api.ChatResponse) error {
			chunk := ResponseChunk{Text: resp.Message.Content}
			if resp.Done {
				chunk.Done = true
				chunk.InputTokens = resp.PromptEvalCount
				chunk.OutputTokens = resp.EvalCount
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil {
			select {
			case chunks <- ResponseChunk{Error: wrapOllamaError(err, apiReq.Model), Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return &StreamingResponse{Chunks: chunks, Done: done}, nil
}

// withRetry runs fn, retrying retryable failures with exponential backoff.
func (c *OllamaClient) withRetry(ctx context.Context, model string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.config.Retry.RetryDelay, attempt-1, c.config.Retry.MaxDelay)
			logging.Info("retrying Ollama request", "attempt", attempt, "delay", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) || ctx.Err() != nil {
			return wrapOllamaError(err, model)
		}

		logging.Warn("Ollama request failed, will retry", "attempt", attempt, "error", err)
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.config.Retry.MaxRetries, wrapOllamaError(lastErr, model))
}

// ListModels returns the models installed on the Ollama server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, wrapOllamaError(err, "")
	}

	models := make([]string, 0, len(resp.Models))
	for _, model := range resp.Models {
		models = append(models, model.Name)
	}
	return models, nil
}

// Healthcheck verifies that the Ollama server is accessible.
func (c *OllamaClient) Healthcheck(ctx context.Context) error {
	// Ollama SDK doesn't have an explicit ping, use List as healthcheck
	if _, err := c.client.List(ctx); err != nil {
		return wrapOllamaError(err, "")
	}
	return nil
}

// IsModelAvailable checks if a model is installed locally.
func (c *OllamaClient) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	return ContainsModel(models, modelName), nil
}

// ContainsModel reports whether name is among installed, accepting an
// untagged name for any tag of that model.
func ContainsModel(installed []string, name string) bool {
	for _, m := range installed {
		if m == name || m == name+":latest" || strings.HasPrefix(m, name+":") {
			return true
		}
	}
	return false
}

// Embed returns one embedding per input text.
func (c *OllamaClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float32
	err := c.withRetry(ctx, model, func() error {
		resp, err := c.client.Embed(ctx, &api.EmbedRequest{Model: model, Input: texts})
		if err != nil {
			return err
		}
		out = resp.Embeddings
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embed: got %d embeddings for %d inputs", len(out), len(texts))
	}
	return out, nil
}
