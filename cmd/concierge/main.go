package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/citygrid/concierge/internal/api/http"
	"github.com/citygrid/concierge/internal/chain"
	"github.com/citygrid/concierge/internal/config"
	"github.com/citygrid/concierge/internal/enrich"
	"github.com/citygrid/concierge/internal/events"
	"github.com/citygrid/concierge/internal/geo"
	"github.com/citygrid/concierge/internal/news"
	"github.com/citygrid/concierge/internal/relay"
	"github.com/citygrid/concierge/internal/scheduler"
	"github.com/citygrid/concierge/internal/search"
	"github.com/citygrid/concierge/internal/store"
	"github.com/citygrid/concierge/internal/weather"
	"github.com/citygrid/concierge/internal/weather/providers"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "concierge").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Shared HTTP client for outbound provider calls. Deadlines come from
	// per-call contexts, not a client-wide timeout.
	httpClient := &http.Client{}

	// Geocoding chain: Azure Maps, then Google.
	geoChain := []chain.Provider[string, geo.Coordinates]{
		geo.NewAzureMapsClient(httpClient, cfg.AzureMapsKey),
		geo.NewGoogleClient(cfg.GoogleGeocoderKey),
	}

	// Weather chain in priority order.
	weatherChain := []chain.Provider[weather.Query, weather.Reading]{
		providers.NewAzureMapsProvider(httpClient, cfg.AzureMapsKey, geoChain, logger),
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey),
		providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey),
	}

	searchClient := search.NewClient(httpClient, cfg.SearchEndpoint, cfg.SearchKey, cfg.SearchIndexes)

	eventsIndex, _ := searchClient.Index("events")
	eventsChain := []chain.Provider[events.Query, events.Event]{
		events.NewAzureSearchProvider(searchClient, eventsIndex, logger),
		events.NewEventbriteProvider(httpClient, cfg.EventbriteToken, logger),
	}

	newsChain := []chain.Provider[news.Query, news.Article]{
		news.NewNewsAPIProvider(httpClient, cfg.NewsAPIKey, logger),
	}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Background refresh keeps the cache warm for dashboard reads. Only
	// live readings are cached; synthetic placeholders are not.
	refresh := func(ctx context.Context, q weather.Query) {
		res := chain.Resolve(ctx, logger, weatherChain, 10*time.Second, weather.Synthetic, q)
		if res.AllFailed {
			logger.Warn().Str("city", q.City).Msg("refresh produced no live weather")
			return
		}
		memStore.Save(q, res.Records[0])
	}

	sched := scheduler.New(cfg.Cities, cfg.FetchInterval, refresh, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	pipeline := enrich.NewPipeline(enrich.DefaultRules(), weatherChain, eventsChain)
	relayClient := relay.NewClient(httpClient, cfg.SpaceURL, cfg.HFToken)

	app := fiber.New(fiber.Config{
		AppName:               "concierge",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Chat relay calls can legitimately take minutes when the backend
		// queue is slow; the write timeout must cover the worst case.
		WriteTimeout: 3 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New())
	app.Use(recover.New())
	app.Use(httpapi.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "concierge",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Relay:   relayClient,
		Enrich:  pipeline,
		Weather: weatherChain,
		Events:  eventsChain,
		News:    newsChain,
		Geo:     geoChain,
		Search:  searchClient,
		Store:   memStore,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
