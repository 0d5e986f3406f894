package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/chain"
	"github.com/citygrid/concierge/internal/geo"
	"github.com/citygrid/concierge/internal/upstream"
	"github.com/citygrid/concierge/internal/weather"
)

// AzureMapsProvider fetches current conditions from the Azure Maps Weather
// API. Azure Maps keys lookups by coordinates, so each fetch geocodes the
// city first through the geo chain.
type AzureMapsProvider struct {
	name    string
	key     string
	baseURL string
	geo     []chain.Provider[string, geo.Coordinates]
	logger  zerolog.Logger
	caller  *upstream.Caller
}

func NewAzureMapsProvider(client *http.Client, key string, geoChain []chain.Provider[string, geo.Coordinates], logger zerolog.Logger) *AzureMapsProvider {
	return &AzureMapsProvider{
		name:    "azuremaps",
		key:     key,
		baseURL: "https://atlas.microsoft.com/weather/currentConditions/json",
		geo:     geoChain,
		logger:  logger,
		caller:  upstream.NewCaller(client, "azuremaps-weather"),
	}
}

func (p *AzureMapsProvider) Name() string { return p.name }

func (p *AzureMapsProvider) Configured() bool { return p.key != "" }

func (p *AzureMapsProvider) Fetch(ctx context.Context, q weather.Query) ([]weather.Reading, error) {
	place := q.City + ", US"
	if q.State != "" {
		place = fmt.Sprintf("%s, %s, US", q.City, q.State)
	}

	coords := chain.Resolve(ctx, p.logger, p.geo, 10*time.Second, nil, place)
	if coords.AllFailed {
		return nil, fmt.Errorf("geocoding failed for %q", place)
	}
	pos := coords.Records[0]

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api-version", "1.1")
		values.Set("subscription-key", p.key)
		values.Set("query", fmt.Sprintf("%f,%f", pos.Lat, pos.Lon))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := p.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []azureMapsConditions `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("azure maps weather returned no results for %q", place)
	}

	reading, err := normalizeAzureMaps(payload.Results[0], q)
	if err != nil {
		return nil, err
	}
	return []weather.Reading{reading}, nil
}

type azureMapsConditions struct {
	Phrase      string `json:"phrase"`
	Temperature *struct {
		Value float64 `json:"value"`
	} `json:"temperature"`
	RealFeelTemperature *struct {
		Value float64 `json:"value"`
	} `json:"realFeelTemperature"`
	RelativeHumidity int `json:"relativeHumidity"`
	Wind             struct {
		Speed struct {
			Value float64 `json:"value"`
		} `json:"speed"`
	} `json:"wind"`
}

// normalizeAzureMaps maps the Azure Maps shape into a Reading. Azure Maps
// reports Celsius and m/s; the normalized record is Fahrenheit and mph.
// Temperature identifies the record and is required; everything else
// defaults when absent.
func normalizeAzureMaps(current azureMapsConditions, q weather.Query) (weather.Reading, error) {
	if current.Temperature == nil {
		return weather.Reading{}, fmt.Errorf("azure maps conditions missing temperature")
	}

	tempC := current.Temperature.Value
	realFeelC := tempC
	if current.RealFeelTemperature != nil {
		realFeelC = current.RealFeelTemperature.Value
	}

	return weather.Reading{
		TemperatureF: math.Round(tempC*9/5 + 32),
		FeelsLikeF:   math.Round(realFeelC*9/5 + 32),
		Description:  current.Phrase,
		HumidityPct:  current.RelativeHumidity,
		WindMPH:      math.Round(current.Wind.Speed.Value * 2.237),
		City:         q.City,
		State:        q.State,
		Country:      "US",
		Timestamp:    time.Now().UTC(),
	}, nil
}
