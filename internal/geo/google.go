package geo

import (
	"context"

	"github.com/kelvins/geocoder"
)

// GoogleClient geocodes through the Google Geocoding API.
// It sits after Azure Maps in the lookup chain.
type GoogleClient struct {
	name string
	key  string
}

func NewGoogleClient(key string) *GoogleClient {
	return &GoogleClient{name: "google", key: key}
}

func (c *GoogleClient) Name() string { return c.name }

func (c *GoogleClient) Configured() bool { return c.key != "" }

func (c *GoogleClient) Fetch(_ context.Context, query string) ([]Coordinates, error) {
	geocoder.ApiKey = c.key

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return nil, err
	}
	return []Coordinates{{Lat: loc.Latitude, Lon: loc.Longitude}}, nil
}
