package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	serpAPIEndpoint = "https://serpapi.com/search"
	googleEndpoint  = "https://www.googleapis.com/customsearch/v1"
)

// SerpAPI searches Google through SerpAPI.
type SerpAPI struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewSerpAPI creates a SerpAPI provider.
func NewSerpAPI(apiKey string, httpClient *http.Client) *SerpAPI {
	return &SerpAPI{apiKey: apiKey, endpoint: serpAPIEndpoint, client: httpClient}
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var data struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
		Error string `json:"error"`
	}
	if err := doJSON(s.client, req, &data); err != nil {
		return nil, err
	}
	if data.Error != "" {
		return nil, fmt.Errorf("API error: %s", data.Error)
	}

	results := make([]Result, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		results = append(results, Result{Title: r.Title, URL: r.Link, Content: r.Snippet})
	}
	return limit(results, maxResults), nil
}

// Google searches with the Google Custom Search JSON API.
type Google struct {
	apiKey   string
	cx       string
	endpoint string
	client   *http.Client
}

// NewGoogle creates a Google Custom Search provider.
func NewGoogle(apiKey, cx string, httpClient *http.Client) *Google {
	return &Google{apiKey: apiKey, cx: cx, endpoint: googleEndpoint, client: httpClient}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	// The API caps num at 10
	if maxResults > 10 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("cx", g.cx)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var data struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := doJSON(g.client, req, &data); err != nil {
		return nil, err
	}
	if data.Error.Message != "" {
		return nil, fmt.Errorf("API error: %s", data.Error.Message)
	}

	results := make([]Result, 0, len(data.Items))
	for _, r := range data.Items {
		results = append(results, Result{Title: r.Title, URL: r.Link, Content: r.Snippet})
	}
	return limit(results, maxResults), nil
}

func limit(results []Result, n int) []Result {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
