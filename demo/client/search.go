package client

import (
	"context"
	"net/http"
)

// SearchResult is the direct retrieval response.
type SearchResult struct {
	Query   string          `json:"query"`
	Results []ContextResult `json:"results"`
	Count   int             `json:"count"`
	TookMs  int64           `json:"took_ms"`
}

// Search runs a standalone retrieval query against the index.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	payload := map[string]interface{}{
		"query": query,
	}

	var result SearchResult
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/search", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
