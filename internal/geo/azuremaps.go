package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/citygrid/concierge/internal/upstream"
)

// AzureMapsClient geocodes through the Azure Maps address search API.
type AzureMapsClient struct {
	name    string
	key     string
	baseURL string
	caller  *upstream.Caller
}

func NewAzureMapsClient(client *http.Client, key string) *AzureMapsClient {
	return &AzureMapsClient{
		name:    "azuremaps",
		key:     key,
		baseURL: "https://atlas.microsoft.com/search/address/json",
		caller:  upstream.NewCaller(client, "azuremaps-geocode"),
	}
}

func (c *AzureMapsClient) Name() string { return c.name }

func (c *AzureMapsClient) Configured() bool { return c.key != "" }

func (c *AzureMapsClient) Fetch(ctx context.Context, query string) ([]Coordinates, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api-version", "1.0")
		values.Set("subscription-key", c.key)
		values.Set("query", query)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := c.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Position struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"position"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("azure maps returned no results for %q", query)
	}

	pos := payload.Results[0].Position
	return []Coordinates{{Lat: pos.Lat, Lon: pos.Lon}}, nil
}
