// Package app wires the model client, the generation flows and the document
// pipelines into the HTTP server and runs it.
package app

import (
	"context"
	"sync"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/client"
	"localcoder/internal/config"
	"localcoder/internal/logging"
	"localcoder/internal/rag"
	"localcoder/internal/server"
)

// App is the assembled application.
type App struct {
	cfg       *config.Config
	client    *client.OllamaClient
	assistant *assistant.Assistant
	sessions  *chat.Store
	documents *rag.Pipeline
	library   *rag.Library
	db        *rag.SQLiteStore
	server    *server.Server

	ctx           context.Context
	cancel        context.CancelFunc
	tracker       *GoroutineTracker
	signalCleanup func()
	closeOnce     sync.Once
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewBuilder(ctx, cfg).Build()
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Client returns the model client.
func (a *App) Client() *client.OllamaClient { return a.client }

// Assistant returns the generation flows.
func (a *App) Assistant() *assistant.Assistant { return a.assistant }

// Documents returns the uploaded-document pipeline, or nil when document
// question answering is disabled.
func (a *App) Documents() *rag.Pipeline { return a.documents }

// Server returns the HTTP server.
func (a *App) Server() *server.Server { return a.server }

// Run serves the UI until ctx is cancelled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.tracker = NewGoroutineTracker()
	a.signalCleanup = a.setupSignalHandler()
	defer a.Close()

	a.logBuildSummary()

	if a.library != nil && a.tracker.Add() {
		go func() {
			defer a.tracker.Done()
			a.startLibrary()
		}()
	}

	return a.server.ListenAndServe(a.ctx)
}

// startLibrary indexes the watched directory and starts watching it.
func (a *App) startLibrary() {
	logging.Info("indexing document library", "dir", a.cfg.RAG.WatchDir)
	if err := a.library.Start(a.ctx); err != nil {
		logging.Warn("document library unavailable", "dir", a.cfg.RAG.WatchDir, "error", err)
		return
	}
	if n, err := a.library.Count(a.ctx); err == nil {
		logging.Info("document library ready", "chunks", n)
	}
}

// Close releases the app's resources. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(a.gracefulShutdown)
}
