package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/citygrid/concierge/internal/common"
	"github.com/citygrid/concierge/internal/upstream"
	"github.com/citygrid/concierge/internal/weather"
)

// OpenWeatherProvider fetches current conditions from OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	caller  *upstream.Caller
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		caller:  upstream.NewCaller(client, "openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string { return p.name }

func (p *OpenWeatherProvider) Configured() bool { return p.apiKey != "" }

func (p *OpenWeatherProvider) Fetch(ctx context.Context, q weather.Query) ([]weather.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "imperial")

		query := fmt.Sprintf("%s,US", q.City)
		if q.State != "" {
			query = fmt.Sprintf("%s,%s,US", q.City, q.State)
		}
		values.Set("q", query)

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := p.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	reading, err := normalizeOpenWeather(payload, q)
	if err != nil {
		return nil, err
	}
	return []weather.Reading{reading}, nil
}

type openWeatherPayload struct {
	Name string `json:"name"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike float64  `json:"feels_like"`
		Humidity  int      `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

func normalizeOpenWeather(payload openWeatherPayload, q weather.Query) (weather.Reading, error) {
	if payload.Main.Temp == nil {
		return weather.Reading{}, fmt.Errorf("openweather payload missing temperature")
	}

	var description, icon string
	if len(payload.Weather) > 0 {
		description = common.Title(payload.Weather[0].Description)
		icon = payload.Weather[0].Icon
	}

	city := payload.Name
	if city == "" {
		city = q.City
	}
	country := payload.Sys.Country
	if country == "" {
		country = "US"
	}

	return weather.Reading{
		TemperatureF: math.Round(*payload.Main.Temp),
		FeelsLikeF:   math.Round(payload.Main.FeelsLike),
		Description:  description,
		Icon:         icon,
		HumidityPct:  payload.Main.Humidity,
		WindMPH:      math.Round(payload.Wind.Speed),
		City:         city,
		State:        q.State,
		Country:      country,
		Timestamp:    time.Now().UTC(),
	}, nil
}
