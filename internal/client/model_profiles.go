package client

import "strings"

// ModelProfile contains metadata about an Ollama model family.
type ModelProfile struct {
	Family         string // e.g., "llama", "qwen", "mistral", "codellama"
	ContextWindow  int    // approximate context window size
	IsCoding       bool   // optimized for code generation
	SupportsVision bool   // accepts images
	IsSmall        bool   // under 13B parameters
}

// knownModelProfiles maps model name prefixes to their profiles.
var knownModelProfiles = map[string]ModelProfile{
	"llama3.2-vision": {Family: "llama", ContextWindow: 128000, SupportsVision: true},
	"llama3.2":        {Family: "llama", ContextWindow: 128000, IsSmall: true},
	"llama3.1":        {Family: "llama", ContextWindow: 128000},
	"llama3":          {Family: "llama", ContextWindow: 8192},
	"llava":           {Family: "llava", ContextWindow: 4096, SupportsVision: true},

	"qwen2.5-coder": {Family: "qwen", ContextWindow: 32768, IsCoding: true},
	"qwen2.5vl":     {Family: "qwen", ContextWindow: 32768, SupportsVision: true},
	"qwen2.5":       {Family: "qwen", ContextWindow: 32768},
	"qwen2":         {Family: "qwen", ContextWindow: 32768},

	"mistral": {Family: "mistral", ContextWindow: 32768},
	"mixtral": {Family: "mistral", ContextWindow: 32768},

	"codellama":      {Family: "codellama", ContextWindow: 16384, IsCoding: true},
	"deepseek-coder": {Family: "deepseek", ContextWindow: 16384, IsCoding: true},
	"codegemma":      {Family: "gemma", ContextWindow: 8192, IsCoding: true},
	"starcoder2":     {Family: "starcoder", ContextWindow: 16384, IsCoding: true},

	"gemma3": {Family: "gemma", ContextWindow: 128000, SupportsVision: true},
	"gemma2": {Family: "gemma", ContextWindow: 8192, IsSmall: true},

	"gpt-oss": {Family: "gpt-oss", ContextWindow: 128000},
}

// GetModelProfile returns the profile for a given model name.
// Uses longest-prefix matching to find the best profile.
func GetModelProfile(modelName string) ModelProfile {
	modelName = strings.ToLower(modelName)

	// Strip tag like ":latest", ":7b", ":70b-instruct"
	baseName := modelName
	if idx := strings.Index(modelName, ":"); idx > 0 {
		baseName = modelName[:idx]
	}

	bestMatch := ""
	for prefix := range knownModelProfiles {
		if strings.HasPrefix(baseName, prefix) && len(prefix) > len(bestMatch) {
			bestMatch = prefix
		}
	}
	if bestMatch != "" {
		profile := knownModelProfiles[bestMatch]
		profile.IsSmall = profile.IsSmall || isSmallByTag(modelName)
		profile.SupportsVision = profile.SupportsVision || looksLikeVision(modelName)
		return profile
	}

	// Unknown model: conservative defaults
	return ModelProfile{
		Family:         "unknown",
		ContextWindow:  4096,
		SupportsVision: looksLikeVision(modelName),
		IsSmall:        true,
	}
}

// looksLikeVision applies the naming heuristic for multimodal models.
func looksLikeVision(modelName string) bool {
	lower := strings.ToLower(modelName)
	return strings.Contains(lower, "llava") || strings.Contains(lower, "vision")
}

// isSmallByTag checks if the model tag indicates a small model (<13B).
func isSmallByTag(modelName string) bool {
	lower := strings.ToLower(modelName)
	smallTags := []string{":1b", ":3b", ":6.7b", ":7b", ":8b", ":9b", ":12b",
		"-1b", "-3b", "-7b", "-8b", "-9b", "-12b"}
	for _, tag := range smallTags {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}
