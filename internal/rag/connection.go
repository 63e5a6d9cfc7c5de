package rag

import (
	"context"
	"fmt"
	"strings"
)

// ModelLister lists the models installed on the Ollama server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Connection is the outcome of CheckConnection.
type Connection struct {
	OK      bool
	Model   string
	Message string
}

// CheckConnection picks the chat model for question answering: model when
// it is installed, else the first installed entry of preferred.
func CheckConnection(ctx context.Context, lister ModelLister, model string, preferred []string) Connection {
	installed, err := lister.ListModels(ctx)
	if err != nil {
		return Connection{Message: fmt.Sprintf("❌ Connection failed: %v", err)}
	}

	has := make(map[string]bool, len(installed))
	for _, m := range installed {
		has[m] = true
	}

	selected := ""
	if model != "" && has[model] {
		selected = model
	} else {
		for _, p := range preferred {
			if has[p] {
				selected = p
				break
			}
		}
	}

	if selected == "" {
		return Connection{Message: "❌ None of preferred models found. Available: " + listRepr(installed)}
	}
	return Connection{OK: true, Model: selected, Message: "✅ Connected! Using model: " + selected}
}

// listRepr renders names as ['a', 'b'].
func listRepr(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
