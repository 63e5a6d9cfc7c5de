package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/client"
	"localcoder/internal/config"
	"localcoder/internal/highlight"
	"localcoder/internal/logging"
	"localcoder/internal/ocr"
	"localcoder/internal/rag"
	"localcoder/internal/ratelimit"
	"localcoder/internal/robustness"
	"localcoder/internal/server"
	"localcoder/internal/webfetch"
	"localcoder/internal/websearch"

	"github.com/google/uuid"
)

const (
	searchCacheSize        = 128
	searchCacheTTL         = 15 * time.Minute
	searchFailureThreshold = 3
	searchRetryAfter       = 2 * time.Minute
)

// Builder provides a fluent interface for constructing App instances.
// Optional features that fail to initialize are disabled and logged;
// only a broken model client stops the build.
type Builder struct {
	cfg *config.Config
	ctx context.Context

	client      *client.OllamaClient
	searcher    *websearch.Searcher
	extractor   ocr.Extractor
	fetcher     *webfetch.Fetcher
	assistant   *assistant.Assistant
	sessions    *chat.Store
	embedder    rag.Embedder
	db          *rag.SQLiteStore
	documents   *rag.Pipeline
	library     *rag.Library
	highlighter *highlight.Highlighter
	limiter     *ratelimit.Limiter

	buildErrors []error
}

// NewBuilder creates a new Builder with the given config.
func NewBuilder(ctx context.Context, cfg *config.Config) *Builder {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Builder{cfg: cfg, ctx: ctx}
}

// Build constructs the App instance, returning any errors encountered.
func (b *Builder) Build() (*App, error) {
	if err := b.initClient(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	b.initSearch()
	b.initOCR()
	b.initAssistant()
	b.initDocuments()
	b.initLibrary()

	b.sessions = chat.NewStore(b.cfg.Server.MaxSessions, b.cfg.Server.SessionTTL, 0)
	b.highlighter = highlight.New("")
	b.limiter = ratelimit.NewLimiter(ratelimit.Config{
		Enabled:           b.cfg.Server.RequestsPerMinute > 0,
		RequestsPerMinute: b.cfg.Server.RequestsPerMinute,
		BurstSize:         b.cfg.Server.Burst,
	})

	return b.assembleApp(), nil
}

// Errors returns the non-fatal errors collected while building.
func (b *Builder) Errors() []error {
	return b.buildErrors
}

func (b *Builder) initClient() error {
	oc := b.cfg.Ollama
	c, err := client.NewOllamaClient(client.OllamaConfig{
		BaseURL:      oc.BaseURL,
		APIKey:       oc.APIKey,
		DefaultModel: oc.DefaultModel,
		HTTPTimeout:  oc.Retry.HTTPTimeout,
		Retry: client.RetryConfig{
			MaxRetries: oc.Retry.MaxRetries,
			RetryDelay: oc.Retry.RetryDelay,
		},
	})
	if err != nil {
		return NewAppError(ErrCodeClient, "failed to create Ollama client", err)
	}
	b.client = c
	return nil
}

func (b *Builder) initSearch() {
	p, err := websearch.NewProvider(b.cfg.Search)
	if err != nil {
		b.optional("web search", NewAppError(ErrCodeConfig, "invalid search settings", err))
		return
	}
	b.searcher = websearch.NewSearcher(p, b.cfg.Search.MaxResults,
		websearch.WithCache(searchCacheSize, searchCacheTTL),
		websearch.WithBreaker(robustness.NewCircuitBreaker(searchFailureThreshold, searchRetryAfter)))
}

func (b *Builder) initOCR() {
	e, err := ocr.New(b.cfg.OCR, b.client)
	if err != nil {
		b.optional("image text extraction", NewAppError(ErrCodeConfig, "invalid OCR settings", err))
		return
	}
	b.extractor = e
}

func (b *Builder) initAssistant() {
	b.fetcher = webfetch.New()
	opts := []assistant.Option{
		assistant.WithSearcher(b.searcher),
		assistant.WithFetcher(b.fetcher),
	}
	if b.extractor != nil {
		opts = append(opts, assistant.WithOCR(b.extractor))
	}
	b.assistant = assistant.New(b.client, opts...)
}

// initDocuments sets up the embedder and the per-session document pipeline.
func (b *Builder) initDocuments() {
	rc := b.cfg.RAG
	embedder, err := rag.NewEmbedder(b.ctx, rc, b.client)
	if err != nil {
		b.optional("document question answering", NewAppError(ErrCodeConfig, "invalid embedding settings", err))
		return
	}
	b.embedder = embedder

	var newStore func() (rag.VectorStore, error)
	if rc.Store == "sqlite" {
		path := rc.StorePath
		if path == "" {
			path = filepath.Join(config.DataDir(), "documents.db")
		}
		db, err := rag.OpenSQLiteStore(path)
		if err != nil {
			b.optional("document question answering", NewAppError(ErrCodeIO, "failed to open document store", err))
			return
		}
		b.db = db
		newStore = func() (rag.VectorStore, error) {
			return db.WithCollection("session-" + uuid.NewString()), nil
		}
	}
	b.documents = rag.NewPipeline(rc, b.client, embedder, newStore)
}

// initLibrary sets up the watched document library when a directory is set.
func (b *Builder) initLibrary() {
	rc := b.cfg.RAG
	if rc.WatchDir == "" || b.embedder == nil {
		return
	}

	var store rag.VectorStore = rag.NewMemoryStore()
	if b.db != nil {
		store = b.db.PersistentCollection("library")
	}
	lib, err := rag.NewLibrary(rc, b.embedder, store)
	if err != nil {
		b.optional("document library", NewAppError(ErrCodeIO, "failed to watch "+rc.WatchDir, err))
		return
	}
	b.library = lib
}

func (b *Builder) assembleApp() *App {
	a := &App{
		cfg:       b.cfg,
		client:    b.client,
		assistant: b.assistant,
		sessions:  b.sessions,
		documents: b.documents,
		library:   b.library,
		db:        b.db,
	}
	a.server = server.New(server.Options{
		Config:      b.cfg,
		Backend:     b.client,
		Assistant:   b.assistant,
		Sessions:    b.sessions,
		Documents:   b.documents,
		Library:     b.library,
		Highlighter: b.highlighter,
		Limiter:     b.limiter,
	})
	return a
}

// optional records the failure of an optional feature.
func (b *Builder) optional(feature string, err error) {
	b.addError(err)
	LogOptional(feature, err)
}

func (b *Builder) addError(err error) {
	if err != nil {
		b.buildErrors = append(b.buildErrors, err)
	}
}

func (b *Builder) finalizeError() error {
	if len(b.buildErrors) == 0 {
		return nil
	}
	if len(b.buildErrors) == 1 {
		return b.buildErrors[0]
	}
	return fmt.Errorf("build failed: %w", errors.Join(b.buildErrors...))
}

// logBuildSummary logs which optional features are active.
func (a *App) logBuildSummary() {
	logging.Info("features",
		"search", a.assistant.SearchEnabled(),
		"documents", a.documents != nil,
		"library", a.library != nil,
		"document_store", a.cfg.RAG.Store)
}
