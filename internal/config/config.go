package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/citygrid/concierge/internal/weather"
)

// AppConfig carries all environment-derived configuration. Every provider
// credential is independently optional; the chat backend token is the one
// hard requirement, enforced at call time so the rest of the API stays up
// without it.
type AppConfig struct {
	Port string

	// Chat backend.
	SpaceURL string
	HFToken  string

	// Data provider credentials.
	AzureMapsKey      string
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	NewsAPIKey        string
	EventbriteToken   string
	GoogleGeocoderKey string

	// Azure Cognitive Search.
	SearchEndpoint string
	SearchKey      string
	SearchIndexes  map[string]string

	// Cities the scheduler keeps warm.
	Cities []weather.Query

	// Refresh cadence and cache retention.
	FetchInterval   time.Duration
	StoreMaxHistory int
	StoreMaxAge     time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &AppConfig{
		Port: getenvDefault("PORT", "8080"),

		SpaceURL: getenvDefault("SPACE_URL", "https://pythonprincess-penny-v2-2.hf.space"),
		HFToken:  os.Getenv("HF_TOKEN"),

		AzureMapsKey:      os.Getenv("AZURE_MAPS_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_KEY"),
		NewsAPIKey:        os.Getenv("NEWS_API_KEY"),
		EventbriteToken:   os.Getenv("EVENTBRITE_API_TOKEN"),
		GoogleGeocoderKey: os.Getenv("GOOGLE_GEOCODER_KEY"),

		SearchEndpoint: os.Getenv("AZURE_SEARCH_ENDPOINT"),
		SearchKey:      firstEnv("AZURE_SEARCH_KEY", "AZURE_SEARCH_API_KEY"),
		SearchIndexes: map[string]string{
			"documents":   os.Getenv("AZURE_SEARCH_INDEX_DOCUMENTS"),
			"events":      os.Getenv("AZURE_SEARCH_INDEX_EVENTS"),
			"geo":         os.Getenv("AZURE_SEARCH_INDEX_GEO"),
			"geolocation": os.Getenv("AZURE_SEARCH_INDEX_GEO"),
			"resources":   os.Getenv("AZURE_SEARCH_INDEX_RESOURCES"),
			"weather":     os.Getenv("AZURE_SEARCH_INDEX_WEATHER"),
		},

		StoreMaxHistory: getenvInt("STORE_MAX_HISTORY", 96),
	}

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.Cities = parseCities(getenvDefault("CITIES", "Norfolk,VA"))

	return cfg, nil
}

// parseCities parses "Norfolk,VA;Seattle,WA" into queries. A bare city name
// without a state is accepted.
func parseCities(raw string) []weather.Query {
	var queries []weather.Query
	for _, entry := range strings.Split(raw, ";") {
		parts := strings.SplitN(entry, ",", 2)
		city := strings.TrimSpace(parts[0])
		if city == "" {
			continue
		}
		q := weather.Query{City: city}
		if len(parts) > 1 {
			q.State = strings.TrimSpace(parts[1])
		}
		queries = append(queries, q)
	}
	return queries
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
