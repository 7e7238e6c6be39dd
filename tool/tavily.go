package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/tools"
)

const (
	tavilyURL             = "https://api.tavily.com/search"
	defaultTavilyResults  = 2
	maxTavilyResponseSize = 4 << 20
)

// SearchResult is one web search hit as returned to the model.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Tavily searches the web through the Tavily API.
type Tavily struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Depth      string
	client     *http.Client
}

var _ tools.Tool = (*Tavily)(nil)

type TavilyOption func(*Tavily)

// WithTavilyBaseURL sets the search endpoint.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *Tavily) {
		t.BaseURL = baseURL
	}
}

// WithTavilyMaxResults sets the number of results requested.
func WithTavilyMaxResults(n int) TavilyOption {
	return func(t *Tavily) {
		if n > 0 {
			t.MaxResults = n
		}
	}
}

// WithTavilyDepth sets the search depth, "basic" or "advanced".
func WithTavilyDepth(depth string) TavilyOption {
	return func(t *Tavily) {
		t.Depth = depth
	}
}

// WithTavilyHTTPClient sets the client used for requests.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *Tavily) {
		t.client = c
	}
}

// NewTavily creates a Tavily search tool.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavily(apiKey string, opts ...TavilyOption) (*Tavily, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &Tavily{
		APIKey:     apiKey,
		BaseURL:    tavilyURL,
		MaxResults: defaultTavilyResults,
		Depth:      "basic",
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the name of the tool.
func (t *Tavily) Name() string {
	return "tavily_search_results_json"
}

// Description returns the description of the tool.
func (t *Tavily) Description() string {
	return "Use this tool to search the web for recent information on a given query. " +
		"Returns a JSON array of search results."
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

// Search returns the results for query, best score first, with their content
// reduced to plain text.
func (t *Tavily) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.APIKey,
		SearchDepth: t.Depth,
		MaxResults:  t.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTavilyResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api returned status: %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := parsed.Results
	for i := range results {
		results[i].Content = cleanText(results[i].Content)
		results[i].Title = cleanText(results[i].Title)
	}
	slices.SortStableFunc(results, func(a, b SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return results, nil
}

// Call executes the search and returns the results as a JSON array.
func (t *Tavily) Call(ctx context.Context, input string) (string, error) {
	results, err := t.Search(ctx, queryInput(input))
	if err != nil {
		return "", err
	}
	return encodeResults(results)
}

var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips markup and entities and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func encodeResults(results []SearchResult) (string, error) {
	if results == nil {
		results = []SearchResult{}
	}
	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(out), nil
}
