package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
// An empty path means the default location; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getConfigPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "localcoder", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "darwin" {
		appSupport := filepath.Join(homeDir, "Library", "Application Support", "localcoder", "config.yaml")
		if _, err := os.Stat(appSupport); err == nil {
			return appSupport
		}
	}

	return filepath.Join(homeDir, ".config", "localcoder", "config.yaml")
}

// GetConfigPath returns the path to the config file (exported for external use).
func GetConfigPath() string {
	return getConfigPath()
}

// DataDir returns the directory for logs and persisted document indexes.
func DataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "localcoder")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "localcoder")
	}
	return filepath.Join(homeDir, ".local", "share", "localcoder")
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	// OLLAMA_BASE_URL wins over OLLAMA_HOST, which the ollama CLI also reads
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		cfg.Ollama.BaseURL = normalizeBaseURL(baseURL)
	} else if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.BaseURL = normalizeBaseURL(host)
	}

	if model := os.Getenv("OLLAMA_DEFAULT_MODEL"); model != "" {
		cfg.Ollama.DefaultModel = model
	}

	// Priority: TAVILY_API_KEY > SERPAPI_API_KEY
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		cfg.Search.APIKey = key
		cfg.Search.Provider = "tavily"
	} else if key := os.Getenv("SERPAPI_API_KEY"); key != "" {
		cfg.Search.APIKey = key
		cfg.Search.Provider = "serpapi"
	}

	if model := os.Getenv("MODEL_NAME"); model != "" {
		cfg.RAG.Model = model
	}
	if pref := os.Getenv("MODEL_PREFERENCE"); pref != "" {
		cfg.RAG.PreferredModels = splitList(pref)
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		cfg.RAG.EmbeddingModel = model
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.RAG.GeminiAPIKey = key
	}

	if addr := os.Getenv("LOCALCODER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("LOCALCODER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// normalizeBaseURL adds a scheme to bare host:port values.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Ollama.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: ollama.base_url %q", ErrInvalidConfig, c.Ollama.BaseURL)
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		return fmt.Errorf("%w: ollama.temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: rag.chunk_size must be positive", ErrInvalidConfig)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: rag.chunk_overlap must be smaller than rag.chunk_size", ErrInvalidConfig)
	}
	switch c.RAG.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: rag.store %q (want memory or sqlite)", ErrInvalidConfig, c.RAG.Store)
	}
	switch c.RAG.EmbeddingProvider {
	case "ollama":
	case "gemini":
		if c.RAG.GeminiAPIKey == "" {
			return ErrMissingGeminiKey
		}
	default:
		return fmt.Errorf("%w: rag.embedding_provider %q", ErrInvalidConfig, c.RAG.EmbeddingProvider)
	}
	switch c.Search.Provider {
	case "tavily", "serpapi":
	case "google":
		if c.Search.APIKey != "" && c.Search.GoogleCX == "" {
			return fmt.Errorf("%w: search.google_cx is required for the google provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: search.provider %q", ErrInvalidConfig, c.Search.Provider)
	}
	switch c.OCR.Engine {
	case "tesseract", "vision":
	default:
		return fmt.Errorf("%w: ocr.engine %q", ErrInvalidConfig, c.OCR.Engine)
	}
	return nil
}

// ConfigError is a configuration validation error.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrInvalidConfig    ConfigError = "invalid configuration"
	ErrMissingGeminiKey ConfigError = "gemini embeddings need GEMINI_API_KEY or rag.gemini_api_key"
)
