package app

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"localcoder/internal/logging"
)

const (
	// GracefulShutdownTimeout is the maximum time to wait for background work.
	GracefulShutdownTimeout = 10 * time.Second
	// ForcedShutdownTimeout is the time after which we force exit.
	ForcedShutdownTimeout = 15 * time.Second
)

// GoroutineTracker tracks running goroutines for graceful shutdown.
type GoroutineTracker struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewGoroutineTracker creates a new goroutine tracker.
func NewGoroutineTracker() *GoroutineTracker {
	return &GoroutineTracker{}
}

// Add registers a new goroutine to track.
func (t *GoroutineTracker) Add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	return true
}

// Done marks a goroutine as completed.
func (t *GoroutineTracker) Done() {
	t.wg.Done()
}

// WaitWithTimeout waits for all goroutines with a timeout.
// Returns true if all goroutines completed, false if timed out.
func (t *GoroutineTracker) WaitWithTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close prevents new goroutines from being added.
func (t *GoroutineTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// setupSignalHandler cancels the app context on SIGINT, SIGTERM or SIGQUIT so
// the server drains. A second signal, or a shutdown that outlives
// ForcedShutdownTimeout, exits immediately.
// Returns a cleanup function that should be called when the app exits.
func (a *App) setupSignalHandler() func() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logging.Info("received signal, shutting down", "signal", sig)

			forceExitTimer := time.AfterFunc(ForcedShutdownTimeout, func() {
				logging.Warn("forced shutdown due to timeout")
				os.Exit(1)
			})
			defer forceExitTimer.Stop()

			a.cancel()

			select {
			case sig := <-sigChan:
				logging.Warn("second signal, exiting", "signal", sig)
				if sig == syscall.SIGQUIT {
					os.Exit(128 + int(syscall.SIGQUIT))
				}
				os.Exit(1)
			case <-done:
			}

		case <-done:
		case <-a.ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// gracefulShutdown stops background work and releases resources.
func (a *App) gracefulShutdown() {
	logging.Debug("starting graceful shutdown")

	// 1. Cancel all ongoing operations
	if a.cancel != nil {
		a.cancel()
	}

	// 2. Cleanup signal handler
	if a.signalCleanup != nil {
		a.signalCleanup()
		a.signalCleanup = nil
	}

	// 3. Wait for library indexing to notice the cancellation
	if a.tracker != nil {
		a.tracker.Close()
		if !a.tracker.WaitWithTimeout(GracefulShutdownTimeout) {
			logging.Warn("background work did not finish in time")
		}
	}

	// 4. Close sessions and their document indexes
	if a.sessions != nil {
		logging.Debug("closing sessions", "count", a.sessions.Len())
		a.sessions.Close()
	}

	// 5. Stop the library watcher and close its store
	if a.library != nil {
		if err := a.library.Close(); err != nil {
			logging.Debug("error closing document library", "error", err)
		}
	}

	// 6. Close the shared document database
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Debug("error closing document database", "error", err)
		}
	}

	logging.Debug("shutdown complete")
	logging.Close()
}
