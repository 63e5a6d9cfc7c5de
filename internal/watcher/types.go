// Package watcher reports debounced changes to files under a directory
// that match a set of glob patterns.
package watcher

import "time"

// Operation represents the type of file system operation.
type Operation int

const (
	OpModify Operation = iota
	OpDelete
)

// String returns the string representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is a settled change to one file.
type Event struct {
	Path      string
	Operation Operation
	Time      time.Time
}

// Config holds file watcher configuration.
type Config struct {
	Dir        string
	Patterns   []string // doublestar globs relative to Dir; empty matches every file
	Debounce   time.Duration
	MaxWatches int
}

const (
	defaultDebounce   = 500 * time.Millisecond
	defaultMaxWatches = 1000
)

// Handler receives debounced file events.
type Handler func(Event)
