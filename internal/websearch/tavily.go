package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily searches with the Tavily API.
type Tavily struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewTavily creates a Tavily provider.
func NewTavily(apiKey string, httpClient *http.Client) *Tavily {
	return &Tavily{apiKey: apiKey, endpoint: tavilyEndpoint, client: httpClient}
}

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	body, err := json.Marshal(map[string]any{
		"query":       query,
		"max_results": maxResults,
		"api_key":     t.apiKey,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	var data struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := doJSON(t.client, req, &data); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(data.Results))
	for _, r := range data.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}
