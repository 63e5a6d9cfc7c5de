package config

import "time"

// Default configuration values.
const (
	// Model server
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultTemperature   = 0.7
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 1 * time.Second
	DefaultHTTPTimeout   = 300 * time.Second

	// Web search
	DefaultSearchResults = 5

	// Document QA
	DefaultRAGModel       = "gpt-oss:20b"
	DefaultRAGTemperature = 0.5
	DefaultEmbeddingModel = "all-minilm"
	DefaultChunkSize      = 1024
	DefaultChunkOverlap   = 64
	DefaultTopK           = 4
	DefaultTypingDelay    = 30 * time.Millisecond

	// HTTP server
	DefaultAddr              = "127.0.0.1:7860"
	DefaultSessionTTL        = 2 * time.Hour
	DefaultMaxSessions       = 256
	DefaultRequestsPerMinute = 120
	DefaultBurst             = 20
	DefaultMaxUploadBytes    = 32 << 20
	DefaultShutdownTimeout   = 10 * time.Second
)

// DefaultPreferredModels is the order in which document QA picks a chat model
// when the configured one is not installed.
var DefaultPreferredModels = []string{
	"gpt-oss:20b",
	"codellama:13b",
	"codellama:7b",
	"llama3.1:8b",
	"llava:13b",
}
