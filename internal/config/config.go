package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Ollama  OllamaConfig  `yaml:"ollama"`
	Search  SearchConfig  `yaml:"search"`
	RAG     RAGConfig     `yaml:"rag"`
	OCR     OCRConfig     `yaml:"ocr"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// OllamaConfig holds settings for the local model server.
type OllamaConfig struct {
	BaseURL      string      `yaml:"base_url"`
	APIKey       string      `yaml:"api_key,omitempty"` // Optional, for remote servers behind auth
	DefaultModel string      `yaml:"default_model"`     // Empty = pick from installed models
	Temperature  float32     `yaml:"temperature"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig holds retry settings for model calls.
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	Provider   string `yaml:"provider"` // tavily, serpapi, google
	APIKey     string `yaml:"api_key,omitempty"`
	GoogleCX   string `yaml:"google_cx,omitempty"`
	MaxResults int    `yaml:"max_results"`
}

// Enabled reports whether a search provider has credentials.
func (s SearchConfig) Enabled() bool {
	return s.APIKey != ""
}

// RAGConfig holds document question-answering settings.
type RAGConfig struct {
	Model             string        `yaml:"model"`
	PreferredModels   []string      `yaml:"preferred_models"`
	Temperature       float32       `yaml:"temperature"`
	EmbeddingProvider string        `yaml:"embedding_provider"` // ollama, gemini
	EmbeddingModel    string        `yaml:"embedding_model"`
	GeminiAPIKey      string        `yaml:"gemini_api_key,omitempty"`
	ChunkSize         int           `yaml:"chunk_size"`
	ChunkOverlap      int           `yaml:"chunk_overlap"`
	TopK              int           `yaml:"top_k"`
	Store             string        `yaml:"store"` // memory, sqlite
	StorePath         string        `yaml:"store_path"`
	TypingDelay       time.Duration `yaml:"typing_delay"`
	WatchDir          string        `yaml:"watch_dir"`
	WatchPatterns     []string      `yaml:"watch_patterns"`
}

// OCRConfig holds image text extraction settings.
type OCRConfig struct {
	Engine      string `yaml:"engine"` // tesseract, vision
	Binary      string `yaml:"binary"`
	Language    string `yaml:"language"`
	VisionModel string `yaml:"vision_model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	MaxSessions       int           `yaml:"max_sessions"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"` // Write to localcoder.log in the data dir instead of stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL:     DefaultOllamaBaseURL,
			Temperature: DefaultTemperature,
			Retry: RetryConfig{
				MaxRetries:  DefaultMaxRetries,
				RetryDelay:  DefaultRetryDelay,
				HTTPTimeout: DefaultHTTPTimeout,
			},
		},
		Search: SearchConfig{
			Provider:   "tavily",
			MaxResults: DefaultSearchResults,
		},
		RAG: RAGConfig{
			Model:             DefaultRAGModel,
			PreferredModels:   append([]string(nil), DefaultPreferredModels...),
			Temperature:       DefaultRAGTemperature,
			EmbeddingProvider: "ollama",
			EmbeddingModel:    DefaultEmbeddingModel,
			ChunkSize:         DefaultChunkSize,
			ChunkOverlap:      DefaultChunkOverlap,
			TopK:              DefaultTopK,
			Store:             "memory",
			TypingDelay:       DefaultTypingDelay,
			WatchPatterns:     []string{"**/*.pdf", "**/*.txt", "**/*.md"},
		},
		OCR: OCRConfig{
			Engine:   "tesseract",
			Binary:   "tesseract",
			Language: "eng",
		},
		Server: ServerConfig{
			Addr:              DefaultAddr,
			SessionTTL:        DefaultSessionTTL,
			MaxSessions:       DefaultMaxSessions,
			RequestsPerMinute: DefaultRequestsPerMinute,
			Burst:             DefaultBurst,
			MaxUploadBytes:    DefaultMaxUploadBytes,
			ShutdownTimeout:   DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
