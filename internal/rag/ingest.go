package rag

import (
	"context"
	"sync"

	"localcoder/internal/config"
	"localcoder/internal/docs"
	"localcoder/internal/logging"
	"localcoder/internal/watcher"
)

// Library keeps the documents of a watched directory indexed. Files are
// indexed at startup and re-indexed when they change.
type Library struct {
	embedder Embedder
	store    VectorStore
	splitter *docs.Splitter
	watcher  *watcher.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // serializes index updates
}

// NewLibrary creates a library over cfg.WatchDir backed by store.
func NewLibrary(cfg config.RAGConfig, embedder Embedder, store VectorStore) (*Library, error) {
	l := &Library{
		embedder: embedder,
		store:    store,
		splitter: NewSplitter(cfg),
	}

	w, err := watcher.New(watcher.Config{Dir: cfg.WatchDir, Patterns: cfg.WatchPatterns}, l.handle)
	if err != nil {
		return nil, err
	}
	l.watcher = w
	return l, nil
}

// Start indexes the existing files and begins watching for changes.
func (l *Library) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	files, err := l.watcher.Scan()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := l.Reindex(l.ctx, path); err != nil {
			logging.Warn("failed to index document", "path", path, "error", err)
		}
	}
	return l.watcher.Start()
}

func (l *Library) handle(e watcher.Event) {
	if e.Operation == watcher.OpDelete {
		if err := l.Remove(l.ctx, e.Path); err != nil {
			logging.Warn("failed to remove document", "path", e.Path, "error", err)
		}
		return
	}
	if !docs.Supported(e.Path) {
		return
	}
	if err := l.Reindex(l.ctx, e.Path); err != nil {
		logging.Warn("failed to re-index document", "path", e.Path, "error", err)
	}
}

// Reindex replaces the chunks of path with its current contents.
func (l *Library) Reindex(ctx context.Context, path string) error {
	pages, err := docs.Load(path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteSource(ctx, path); err != nil {
		return err
	}
	n, err := Index(ctx, l.embedder, l.store, l.splitter, pages)
	if err != nil {
		return err
	}
	logging.Info("document indexed", "path", path, "chunks", n)
	return nil
}

// Remove drops the chunks of path.
func (l *Library) Remove(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.DeleteSource(ctx, path); err != nil {
		return err
	}
	logging.Info("document removed", "path", path)
	return nil
}

// Count returns the number of indexed chunks.
func (l *Library) Count(ctx context.Context) (int, error) {
	return l.store.Count(ctx)
}

// Chain returns a new conversation over the library. Closing the chain
// leaves the library open.
func (l *Library) Chain(chat Chatter, cfg ChainConfig) *Chain {
	return NewChain(chat, l.embedder, sharedStore{l.store}, cfg)
}

// Close stops watching and closes the store.
func (l *Library) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	if err := l.watcher.Stop(); err != nil {
		logging.Warn("failed to stop watcher", "error", err)
	}
	return l.store.Close()
}

// sharedStore is a VectorStore whose Close is a no-op.
type sharedStore struct {
	VectorStore
}

func (sharedStore) Close() error { return nil }
