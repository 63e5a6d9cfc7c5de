package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesAndScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "papers", "2024"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	for _, name := range []string{"notes.md", "papers/a.pdf", "papers/2024/b.pdf", "image.png", ".hidden.md", "node_modules/x.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	w, err := New(Config{Dir: dir, Patterns: []string{"**/*.pdf", "*.md"}}, nil)
	require.NoError(t, err)

	assert.True(t, w.Matches(filepath.Join(dir, "papers", "2024", "b.pdf")))
	assert.False(t, w.Matches(filepath.Join(dir, "image.png")))
	assert.False(t, w.Matches(filepath.Join(dir, "..", "outside.pdf")))

	files, err := w.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "notes.md"),
		filepath.Join(dir, "papers", "2024", "b.pdf"),
		filepath.Join(dir, "papers", "a.pdf"),
	}, files)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)

	_, err = New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Error(t, err)

	_, err = New(Config{Dir: t.TempDir(), Patterns: []string{"[unclosed"}}, nil)
	assert.Error(t, err)
}

func TestWatcherDebouncesEvents(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var events []Event
	w, err := New(Config{Dir: dir, Patterns: []string{"**/*.txt"}, Debounce: 50 * time.Millisecond}, func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.True(t, w.IsRunning())

	path := filepath.Join(dir, "doc.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	got := append([]Event(nil), events...)
	mu.Unlock()

	require.Len(t, got, 1)
	assert.Equal(t, path, got[0].Path)
	assert.Equal(t, OpModify, got[0].Operation)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2 && events[1].Operation == OpDelete
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop())
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "modify", OpModify.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "unknown", Operation(9).String())
}
