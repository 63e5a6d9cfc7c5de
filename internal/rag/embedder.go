// Package rag answers questions about uploaded documents with
// retrieval-augmented generation over a local model.
package rag

import (
	"context"
	"fmt"

	"localcoder/internal/config"

	"google.golang.org/genai"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// EmbedClient is the part of the Ollama client used for embeddings.
type EmbedClient interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// NewEmbedder builds the embedder selected by cfg.
func NewEmbedder(ctx context.Context, cfg config.RAGConfig, ollama EmbedClient) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "", "ollama":
		return NewOllamaEmbedder(ollama, cfg.EmbeddingModel), nil
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return NewGeminiEmbedder(client, cfg.EmbeddingModel), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
}

// embedInBatches calls fn on consecutive groups of at most size texts.
func embedInBatches(ctx context.Context, texts []string, size int, fn func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vecs, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors", start, end, len(vecs))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// OllamaEmbedder embeds with a model served by Ollama.
type OllamaEmbedder struct {
	client EmbedClient
	model  string
}

// NewOllamaEmbedder creates an Ollama embedder. The default model is
// all-minilm, Ollama's packaging of all-MiniLM-L6-v2.
func NewOllamaEmbedder(client EmbedClient, model string) *OllamaEmbedder {
	if model == "" {
		model = config.DefaultEmbeddingModel
	}
	return &OllamaEmbedder{client: client, model: model}
}

func (e *OllamaEmbedder) Model() string { return e.model }

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, 64, func(ctx context.Context, batch []string) ([][]float32, error) {
		return e.client.Embed(ctx, e.model, batch)
	})
}

// GeminiEmbedder embeds with the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a Gemini embedder.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	if model == "" || model == config.DefaultEmbeddingModel {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}
}

func (e *GeminiEmbedder) Model() string { return e.model }

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	const maxBatchSize = 20
	return embedInBatches(ctx, texts, maxBatchSize, e.embedBatch)
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding API error: %w", err)
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
