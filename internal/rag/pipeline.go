package rag

import (
	"context"
	"errors"
	"fmt"

	"localcoder/internal/config"
	"localcoder/internal/docs"
	"localcoder/internal/logging"
)

// Status messages shown after processing uploads.
const (
	StatusNoFiles = "Please upload a file first."
	StatusReady   = "Database created! Ready for questions."
)

// ErrNoContent is returned when the documents contain no text.
var ErrNoContent = errors.New("no text could be extracted from the documents")

// Backend is the model server used for listing models and chatting.
type Backend interface {
	ModelLister
	Chatter
}

// Pipeline turns uploaded files into a question-answering Chain.
type Pipeline struct {
	cfg      config.RAGConfig
	backend  Backend
	embedder Embedder
	newStore func() (VectorStore, error)
}

// NewPipeline creates a pipeline. newStore is called once per Process; a
// nil newStore uses in-memory stores.
func NewPipeline(cfg config.RAGConfig, backend Backend, embedder Embedder, newStore func() (VectorStore, error)) *Pipeline {
	if newStore == nil {
		newStore = func() (VectorStore, error) { return NewMemoryStore(), nil }
	}
	return &Pipeline{cfg: cfg, backend: backend, embedder: embedder, newStore: newStore}
}

// Process loads, splits, embeds and indexes paths, then connects a chain to
// the model server. It returns the chain (nil on failure) and the status
// message for the user.
func (p *Pipeline) Process(ctx context.Context, paths []string) (*Chain, string) {
	if len(paths) == 0 {
		return nil, StatusNoFiles
	}

	chain, err := p.build(ctx, paths)
	if err != nil {
		logging.Warn("document processing failed", "files", len(paths), "error", err)
		return nil, "Processing error: " + err.Error()
	}
	return chain, StatusReady
}

func (p *Pipeline) build(ctx context.Context, paths []string) (*Chain, error) {
	pages, err := docs.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	store, err := p.newStore()
	if err != nil {
		return nil, err
	}

	n, err := Index(ctx, p.embedder, store, NewSplitter(p.cfg), pages)
	if err != nil {
		store.Close()
		return nil, err
	}
	if n == 0 {
		store.Close()
		return nil, ErrNoContent
	}

	conn := CheckConnection(ctx, p.backend, p.cfg.Model, p.cfg.PreferredModels)
	if !conn.OK {
		store.Close()
		return nil, fmt.Errorf("Ollama connection failed: %s", conn.Message)
	}

	logging.Info("document index ready", "files", len(paths), "pages", len(pages), "chunks", n,
		"model", conn.Model, "embedding_model", p.embedder.Model())

	return NewChain(p.backend, p.embedder, store, ChainConfig{
		Model:       conn.Model,
		Temperature: p.cfg.Temperature,
		TopK:        p.cfg.TopK,
	}), nil
}

// NewSplitter creates the chunk splitter configured by cfg.
func NewSplitter(cfg config.RAGConfig) *docs.Splitter {
	return docs.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
}

// Index splits pages, embeds the chunks and adds them to store. It returns
// the number of chunks added.
func Index(ctx context.Context, embedder Embedder, store VectorStore, splitter *docs.Splitter, pages []docs.Document) (int, error) {
	chunks := splitter.SplitDocuments(pages)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if err := store.Add(ctx, chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
