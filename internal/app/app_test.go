package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"localcoder/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	return cfg
}

func TestBuildDefaults(t *testing.T) {
	b := NewBuilder(context.Background(), testConfig())
	a, err := b.Build()
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, b.Errors())
	assert.NotNil(t, a.Client())
	assert.NotNil(t, a.Server())
	assert.NotNil(t, a.documents)
	assert.Nil(t, a.library)
	assert.Nil(t, a.db)
	assert.False(t, a.Assistant().SearchEnabled())
}

func TestBuildRejectsBadOllamaURL(t *testing.T) {
	cfg := testConfig()
	cfg.Ollama.BaseURL = "not a url"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrCodeClient, appErr.Code)
}

func TestBuildDisablesBrokenOptionalFeatures(t *testing.T) {
	cfg := testConfig()
	cfg.Search.APIKey = "key"
	cfg.Search.Provider = "altavista"
	cfg.OCR.Engine = "magic"
	cfg.RAG.EmbeddingProvider = "unknown"
	cfg.RAG.WatchDir = t.TempDir()

	b := NewBuilder(context.Background(), cfg)
	a, err := b.Build()
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, b.Errors(), 3)
	for _, err := range b.Errors() {
		var appErr *AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, ErrCodeConfig, appErr.Code)
	}
	assert.False(t, a.Assistant().SearchEnabled())
	assert.Nil(t, a.documents)
	assert.Nil(t, a.library)
}

func TestBuildSQLiteStoreAndLibrary(t *testing.T) {
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))

	cfg := testConfig()
	cfg.RAG.Store = "sqlite"
	cfg.RAG.StorePath = filepath.Join(dir, "index.db")
	cfg.RAG.WatchDir = docsDir

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, a.db)
	assert.NotNil(t, a.library)
	assert.NotNil(t, a.documents)
	assert.FileExists(t, cfg.RAG.StorePath)

	a.Close()
	a.Close()
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestGoroutineTracker(t *testing.T) {
	tr := NewGoroutineTracker()
	require.True(t, tr.Add())

	go func() {
		time.Sleep(10 * time.Millisecond)
		tr.Done()
	}()
	assert.True(t, tr.WaitWithTimeout(time.Second))

	tr.Close()
	assert.False(t, tr.Add())
}

func TestAppErrorFormat(t *testing.T) {
	err := NewAppError(ErrCodeIO, "failed to open", errors.New("disk full"))
	assert.Equal(t, "[io] failed to open: disk full", err.Error())
	assert.Equal(t, "[config] bad value", NewAppError(ErrCodeConfig, "bad value", nil).Error())
}
