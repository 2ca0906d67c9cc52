// Package search queries the Tavily web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultEndpoint = "https://api.tavily.com/search"
	maxResults      = 5
)

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type request struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type response struct {
	Results []Result `json:"results"`
}

type Tavily struct {
	key      string
	endpoint string
	http     *http.Client
}

// NewTavily returns a client. httpClient may be nil.
func NewTavily(apiKey string, httpClient *http.Client) *Tavily {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 25 * time.Second}
	}
	return &Tavily{key: apiKey, endpoint: DefaultEndpoint, http: httpClient}
}

// WithEndpoint points the client at another server.
func (t *Tavily) WithEndpoint(url string) *Tavily {
	t.endpoint = url
	return t
}

func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(request{
		APIKey:      t.key,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return out.Results, nil
}
