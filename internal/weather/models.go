package weather

import (
	"time"
)

// Query identifies the place a weather lookup is for.
// City must be provided; State is optional ("Norfolk", "VA").
type Query struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Key returns a canonical string key for indexing this query in stores.
func (q Query) Key() string {
	return q.City + ":" + q.State
}

// Reading is the normalized current-conditions record every provider shape
// maps into. Temperatures are Fahrenheit, wind is mph.
//
// Synthetic is true only when no live provider produced data; callers must
// be able to tell placeholder data apart from live data.
type Reading struct {
	TemperatureF float64   `json:"temperature"`
	FeelsLikeF   float64   `json:"feels_like"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon,omitempty"`
	HumidityPct  int       `json:"humidity"`
	WindMPH      float64   `json:"wind_speed"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	Country      string    `json:"country"`
	Timestamp    time.Time `json:"timestamp"`
	Synthetic    bool      `json:"is_synthetic"`
}
