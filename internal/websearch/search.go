// Package websearch appends web search results to user prompts.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"localcoder/internal/cache"
	"localcoder/internal/config"
	"localcoder/internal/logging"
	"localcoder/internal/robustness"
	"localcoder/internal/security"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Provider runs a web search.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// NewProvider builds the provider named in cfg, or nil when search is not
// configured.
func NewProvider(cfg config.SearchConfig) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	httpClient := security.CreateSecureHTTPClient(30 * time.Second)

	switch cfg.Provider {
	case "", "tavily":
		return NewTavily(cfg.APIKey, httpClient), nil
	case "serpapi":
		return NewSerpAPI(cfg.APIKey, httpClient), nil
	case "google":
		if cfg.GoogleCX == "" {
			return nil, fmt.Errorf("google search needs a custom search engine ID (cx)")
		}
		return NewGoogle(cfg.APIKey, cfg.GoogleCX, httpClient), nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
}

// Format renders results as the text block appended to prompts.
func Format(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s\n",
			orNA(r.Title), orNA(r.URL), orNA(r.Content)))
	}
	return strings.Join(parts, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Searcher augments prompts with search results.
type Searcher struct {
	provider   Provider
	maxResults int
	cache      *cache.LRU[string, string]
	breaker    *robustness.CircuitBreaker
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithCache keeps formatted results of up to capacity queries for ttl.
func WithCache(capacity int, ttl time.Duration) SearcherOption {
	return func(s *Searcher) { s.cache = cache.New[string, string](capacity, ttl) }
}

// WithBreaker skips searching while the provider keeps failing.
func WithBreaker(cb *robustness.CircuitBreaker) SearcherOption {
	return func(s *Searcher) { s.breaker = cb }
}

// NewSearcher wraps a provider; a nil provider disables augmentation.
func NewSearcher(p Provider, maxResults int, opts ...SearcherOption) *Searcher {
	if maxResults <= 0 {
		maxResults = config.DefaultSearchResults
	}
	s := &Searcher{provider: p, maxResults: maxResults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a provider is configured.
func (s *Searcher) Enabled() bool {
	return s != nil && s.provider != nil
}

// Search runs a query and returns the formatted results, or "" on failure.
// Failures are logged, never returned.
func (s *Searcher) Search(ctx context.Context, query string) string {
	if !s.Enabled() {
		return ""
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(query); ok {
			logging.Debug("web search cache hit", "provider", s.provider.Name())
			return cached
		}
	}

	var results []Result
	search := func() error {
		var err error
		results, err = s.provider.Search(ctx, query, s.maxResults)
		return err
	}
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(search)
	} else {
		err = search()
	}
	if err != nil {
		logging.Warn("web search failed", "provider", s.provider.Name(), "error", err)
		return ""
	}
	logging.Debug("web search completed", "provider", s.provider.Name(), "results", len(results))

	formatted := Format(results)
	if s.cache != nil && formatted != "" {
		s.cache.Set(query, formatted)
	}
	return formatted
}

// Augment appends search results for message to message itself. The message
// is returned unchanged when search is disabled, fails or finds nothing.
func (s *Searcher) Augment(ctx context.Context, message string) string {
	results := s.Search(ctx, message)
	if results == "" {
		return message
	}
	return message + "\n\nWeb Search Results:\n" + results
}

// doJSON sends req and decodes a JSON response body into out.
func doJSON(httpClient *http.Client, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
