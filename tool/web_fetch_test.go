package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html>
<head><title>Claims</title><style>body { color: red; }</style></head>
<body>
<h1>Filing a claim</h1>
<script>console.log("tracking")</script>
<p>Submit   the form within <b>30 days</b>.</p>
</body>
</html>`

func TestWebFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			_, _ = w.Write([]byte(testPage))
		case "/empty":
			_, _ = w.Write([]byte(`<html><body><script>x()</script></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	text, err := WebFetch(ctx, server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Filing a claim Submit the form within 30 days.", text)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color")

	_, err = WebFetch(ctx, server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 404")

	_, err = WebFetch(ctx, server.URL+"/empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content found")

	_, err = WebFetch(ctx, "://bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")

	_, err = WebFetch(ctx, "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch URL")
}

func TestWebFetchToolMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	tool := &WebFetchTool{Markdown: true, Client: server.Client()}
	assert.Equal(t, "web_fetch", tool.Name())

	md, err := tool.Call(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, md, "# Filing a claim")
	assert.Contains(t, md, "**30 days**")
	assert.NotContains(t, md, "tracking")
}
