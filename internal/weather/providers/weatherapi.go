package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/citygrid/concierge/internal/upstream"
	"github.com/citygrid/concierge/internal/weather"
)

// WeatherAPIProvider fetches current conditions from WeatherAPI.com.
// Last live provider in the weather chain.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	caller  *upstream.Caller
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		caller:  upstream.NewCaller(client, "weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string { return p.name }

func (p *WeatherAPIProvider) Configured() bool { return p.apiKey != "" }

func (p *WeatherAPIProvider) Fetch(ctx context.Context, q weather.Query) ([]weather.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("aqi", "no")

		query := q.City
		if q.State != "" {
			query = fmt.Sprintf("%s,%s", q.City, q.State)
		}
		values.Set("q", query)

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := p.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload weatherAPIPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	reading, err := normalizeWeatherAPI(payload, q)
	if err != nil {
		return nil, err
	}
	return []weather.Reading{reading}, nil
}

type weatherAPIPayload struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempF     *float64 `json:"temp_f"`
		FeelsF    float64  `json:"feelslike_f"`
		Humidity  int      `json:"humidity"`
		WindMPH   float64  `json:"wind_mph"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
}

func normalizeWeatherAPI(payload weatherAPIPayload, q weather.Query) (weather.Reading, error) {
	if payload.Current.TempF == nil {
		return weather.Reading{}, fmt.Errorf("weatherapi payload missing temperature")
	}

	city := payload.Location.Name
	if city == "" {
		city = q.City
	}
	state := payload.Location.Region
	if state == "" {
		state = q.State
	}

	return weather.Reading{
		TemperatureF: math.Round(*payload.Current.TempF),
		FeelsLikeF:   math.Round(payload.Current.FeelsF),
		Description:  payload.Current.Condition.Text,
		Icon:         payload.Current.Condition.Icon,
		HumidityPct:  payload.Current.Humidity,
		WindMPH:      math.Round(payload.Current.WindMPH),
		City:         city,
		State:        state,
		Country:      payload.Location.Country,
		Timestamp:    time.Now().UTC(),
	}, nil
}
