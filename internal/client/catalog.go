package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode"

	"localcoder/internal/logging"
)

// ModelInfo describes a model offered in the model picker.
type ModelInfo struct {
	Name           string `json:"name"`
	ID             string `json:"id"`
	Description    string `json:"description"`
	SupportsVision bool   `json:"supports_vision"`
}

// PredefinedModels is the curated catalog shown when the models are installed.
var PredefinedModels = []ModelInfo{
	{Name: "CodeLlama 7B", ID: "codellama:7b", Description: "Code Llama 7B model for code generation"},
	{Name: "CodeLlama 13B", ID: "codellama:13b", Description: "Code Llama 13B model for advanced code generation"},
	{Name: "DeepSeek Coder 6.7B", ID: "deepseek-coder:6.7b", Description: "DeepSeek Coder 6.7B model specialized for code generation"},
	{Name: "Llama 3.1 8B", ID: "llama3.1:8b", Description: "Llama 3.1 8B model for general tasks and code generation"},
	{Name: "Llava 7B", ID: "llava:7b", Description: "Llava 7B multimodal model with vision support", SupportsVision: true},
	{Name: "Llava 13B", ID: "llava:13b", Description: "Llava 13B multimodal model with advanced vision support", SupportsVision: true},
	{Name: "Mistral 7B", ID: "mistral:7b", Description: "Mistral 7B model for general tasks"},
	{Name: "Qwen2 7B", ID: "qwen2:7b", Description: "Qwen2 7B model for general tasks and code generation"},
	{Name: "CodeGemma 7B", ID: "codegemma:7b", Description: "CodeGemma 7B model for code generation"},
}

// DefaultModelPriority is consulted in order when no model was chosen explicitly.
var DefaultModelPriority = []string{
	"gemma3:12b",
	"gemma2:9b",
	"gemma2:latest",
	"llama3.2:3b",
	"qwen2.5:7b",
	"llama3.1:latest",
	"mistral:latest",
	"mistral:7b",
}

// Reconcile narrows the predefined catalog to installed models and appends
// entries for installed models the catalog does not know.
func Reconcile(predefined []ModelInfo, installed []string) []ModelInfo {
	if len(installed) == 0 {
		return append([]ModelInfo(nil), predefined...)
	}

	isInstalled := make(map[string]bool, len(installed))
	for _, name := range installed {
		isInstalled[name] = true
	}

	var out []ModelInfo
	seen := make(map[string]bool)
	for _, m := range predefined {
		if isInstalled[m.ID] {
			out = append(out, m)
			seen[m.ID] = true
		}
	}

	for _, name := range installed {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, synthesizeModel(name))
	}
	return out
}

func synthesizeModel(id string) ModelInfo {
	return ModelInfo{
		Name:           titleCase(strings.ReplaceAll(id, ":", " ")),
		ID:             id,
		Description:    id + " model",
		SupportsVision: looksLikeVision(id),
	}
}

// titleCase upper-cases the first letter of every letter run and lower-cases the rest.
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// DefaultModel picks the model to preselect. An installed override wins,
// then the priority list, then the first installed model.
func DefaultModel(installed []string, override string) string {
	has := func(name string) bool {
		for _, m := range installed {
			if m == name {
				return true
			}
		}
		return false
	}

	if override != "" && has(override) {
		return override
	}
	for _, p := range DefaultModelPriority {
		if has(p) {
			return p
		}
	}
	if len(installed) > 0 {
		return installed[0]
	}
	return ""
}

// runOllamaList executes the ollama CLI; replaced in tests.
var runOllamaList = func(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "ollama", "list").Output()
}

// ListInstalled returns installed models, falling back to the ollama CLI when
// the HTTP API is unreachable.
func (c *OllamaClient) ListInstalled(ctx context.Context) ([]string, error) {
	models, err := c.ListModels(ctx)
	if err == nil {
		return models, nil
	}

	logging.Warn("listing models over HTTP failed, trying ollama CLI", "error", err)
	out, cliErr := runOllamaList(ctx)
	if cliErr != nil {
		return nil, fmt.Errorf("list models: %w (cli: %v)", err, cliErr)
	}
	return parseOllamaList(out), nil
}

// parseOllamaList extracts model names from `ollama list` output.
func parseOllamaList(out []byte) []string {
	var models []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] == "NAME" {
			continue
		}
		models = append(models, fields[0])
	}
	return models
}
