// Package search wraps the Azure Cognitive Search query API.
//
// One client serves both the events provider (filtered index query) and the
// generic /api/search passthrough endpoint.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const apiVersion = "2023-07-01-Preview"

// Client issues queries against a single Azure Search service.
// Indexes maps a logical index type ("events", "documents", ...) to the
// deployed index name.
type Client struct {
	endpoint string
	key      string
	indexes  map[string]string
	http     *http.Client
}

func NewClient(client *http.Client, endpoint, key string, indexes map[string]string) *Client {
	return &Client{
		endpoint: endpoint,
		key:      key,
		indexes:  indexes,
		http:     client,
	}
}

// Configured reports whether the search service credentials are present.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.key != ""
}

// Index resolves a logical index type to a deployed index name.
func (c *Client) Index(indexType string) (string, bool) {
	name, ok := c.indexes[indexType]
	return name, ok && name != ""
}

// IndexTypes lists the logical index types the client knows about.
func (c *Client) IndexTypes() []string {
	types := make([]string, 0, len(c.indexes))
	for t := range c.indexes {
		types = append(types, t)
	}
	return types
}

// Search posts a raw search body to the named index and returns the service
// response verbatim.
func (c *Client) Search(ctx context.Context, index string, body map[string]any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, errors.New("azure search not configured")
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode search body")
	}

	u := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "azure search request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("azure search returned %d: %s", resp.StatusCode, raw)
	}

	return json.RawMessage(raw), nil
}
