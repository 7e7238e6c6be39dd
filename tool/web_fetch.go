package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/tools"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFetchBodySize    = 10 << 20
)

// WebFetchTool returns the readable content of a web page.
type WebFetchTool struct {
	// Markdown returns the page converted to markdown instead of plain text.
	Markdown bool
	Client   *http.Client
}

var _ tools.Tool = (*WebFetchTool)(nil)

// Name returns the name of the tool.
func (w *WebFetchTool) Name() string {
	return "web_fetch"
}

// Description returns the description of the tool.
func (w *WebFetchTool) Description() string {
	return "Fetches a web page and returns its text content. Input should be a full URL."
}

// Call fetches the URL given as input.
func (w *WebFetchTool) Call(ctx context.Context, input string) (string, error) {
	url := strings.TrimSpace(input)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	if w.Markdown {
		return fetchMarkdown(ctx, client, url)
	}
	return fetchText(ctx, client, url)
}

// WebFetch returns the visible text of the page at url, without scripts and
// styles.
func WebFetch(ctx context.Context, url string) (string, error) {
	return fetchText(ctx, &http.Client{Timeout: defaultFetchTimeout}, url)
}

func fetchText(ctx context.Context, client *http.Client, url string) (string, error) {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}

func fetchMarkdown(ctx context.Context, client *http.Client, url string) (string, error) {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return "", err
	}
	markdown, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", fmt.Errorf("no text content found")
	}
	return markdown, nil
}

func fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "graphflow/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(data), nil
}
