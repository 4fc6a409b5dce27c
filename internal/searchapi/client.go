package searchapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
)

// maxResponseSize limits backend response bodies to 10 MB.
const maxResponseSize = 10 * 1024 * 1024

// Client queries the paper search backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *HTTPClient
}

// NewClient creates a backend client against the given base URL.
func NewClient(baseURL string, cfg HTTPClientConfig) *Client {
	return &Client{
		baseURL: baseURL,
		http:    NewHTTPClient(cfg),
	}
}

// Collect fetches results for one query/category pair and normalizes the
// response into a category-to-papers mapping. Non-2xx responses and
// transport failures are returned as service errors; unrecognized response
// shapes are not errors and yield an empty mapping.
func (c *Client) Collect(ctx context.Context, query, category string) (map[string][]*domain.Paper, error) {
	body, err := c.get(ctx, "/search", url.Values{
		"query":    {query},
		"category": {category},
	})
	if err != nil {
		return nil, err
	}
	return NormalizeByCategory(body, category), nil
}

// TopResults fetches the cross-category top results for a query. The
// response is a flat paper array.
func (c *Client) TopResults(ctx context.Context, query string) ([]*domain.Paper, error) {
	body, err := c.get(ctx, "/search/top", url.Values{
		"query": {query},
	})
	if err != nil {
		return nil, err
	}
	byCat := NormalizeByCategory(body, "top")
	return byCat["top"], nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewServiceError("collect", 0, "search backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewServiceError("collect", resp.StatusCode, "search backend returned an error", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, domain.NewServiceError("collect", resp.StatusCode, "reading backend response", err)
	}
	return body, nil
}
