package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/apperr"
	"github.com/citygrid/concierge/internal/chain"
	"github.com/citygrid/concierge/internal/enrich"
	"github.com/citygrid/concierge/internal/events"
	"github.com/citygrid/concierge/internal/geo"
	"github.com/citygrid/concierge/internal/news"
	"github.com/citygrid/concierge/internal/relay"
	"github.com/citygrid/concierge/internal/search"
	"github.com/citygrid/concierge/internal/store"
	"github.com/citygrid/concierge/internal/weather"
)

var validate = validator.New()

const (
	defaultCity        = "Norfolk, VA"
	defaultCityName    = "Norfolk"
	lookupTimeout      = 10 * time.Second
	defaultEventsLimit = 10
	defaultDaysAhead   = 30
	defaultNewsLimit   = 10
)

// Deps bundles everything the HTTP handlers call into. Chains are ordered
// provider slices; tests substitute their own.
type Deps struct {
	Relay   *relay.Client
	Enrich  *enrich.Pipeline
	Weather []chain.Provider[weather.Query, weather.Reading]
	Events  []chain.Provider[events.Query, events.Event]
	News    []chain.Provider[news.Query, news.Article]
	Geo     []chain.Provider[string, geo.Coordinates]
	Search  *search.Client
	Store   *store.MemoryStore
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api")

	api.Post("/chat", handleChat(deps))
	api.Get("/weather", handleWeather(deps))
	api.Get("/weather/latest", handleWeatherLatest(deps))
	api.Get("/weather/history", handleWeatherHistory(deps))
	api.Get("/events", handleEvents(deps))
	api.Get("/news", handleNews(deps))
	api.Get("/geolocation", handleGeolocation(deps))
	api.Get("/search", handleSearch(deps))
	api.Post("/search", handleSearch(deps))
}

type chatRequest struct {
	Message   string     `json:"message" validate:"required"`
	City      string     `json:"city"`
	History   [][]string `json:"history"`
	SessionID string     `json:"session_id"`
}

func handleChat(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Message is required")
		}

		if req.City == "" {
			req.City = defaultCity
		}
		// Session ids are opaque and echoed back unchanged; generate one
		// only when the caller didn't supply any.
		if req.SessionID == "" {
			req.SessionID = "session_" + uuid.NewString()
		}

		message, _ := deps.Enrich.Enrich(c.UserContext(), logger, req.Message, req.City)

		turn, err := deps.Relay.Chat(c.UserContext(), logger, message, req.City, req.History, req.SessionID)
		if err != nil {
			return chatError(c, logger, err)
		}

		return c.JSON(fiber.Map{
			"data":       turn.Data,
			"response":   turn.Reply,
			"history":    turn.History,
			"session_id": turn.SessionID,
		})
	}
}

func chatError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	logger.Error().Err(err).Msg("chat relay failed")

	e, ok := apperr.AsError(err)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	status := apperr.HTTPStatus(err)
	switch e.Kind {
	case apperr.ConfigMissing:
		return c.Status(status).JSON(fiber.Map{"error": "HF_TOKEN not configured"})
	case apperr.UpstreamTimeout:
		return c.Status(status).JSON(fiber.Map{"error": "Request to chat backend timed out"})
	case apperr.UpstreamUnreachable:
		return c.Status(status).JSON(fiber.Map{"error": "Failed to connect to chat backend"})
	case apperr.UpstreamRejected:
		// The final fallback failed: surface the upstream's own status and
		// error body verbatim.
		return c.Status(status).JSON(fiber.Map{
			"error":   fmt.Sprintf("Chat backend error: %d", e.Status),
			"details": e.Body,
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}

func handleWeather(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		q := weather.Query{
			City:  c.Query("city", defaultCityName),
			State: c.Query("state"),
		}

		res := chain.Resolve(c.UserContext(), logger, deps.Weather, lookupTimeout, weather.Synthetic, q)
		if deps.Store != nil && !res.AllFailed {
			deps.Store.Save(q, res.Records[0])
		}

		return c.JSON(fiber.Map{
			"weather":  res.Records[0],
			"city":     q.City,
			"state":    q.State,
			"count":    len(res.Records),
			"provider": res.Provider,
		})
	}
}

func handleWeatherLatest(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := weather.Query{
			City:  c.Query("city", defaultCityName),
			State: c.Query("state"),
		}

		reading, err := deps.Store.Latest(q)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no cached weather for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather cache")
		}

		return c.JSON(fiber.Map{
			"weather": reading,
			"city":    q.City,
			"state":   q.State,
		})
	}
}

// historyQuery holds query parameters for the cached history endpoint.
type historyQuery struct {
	City string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func handleWeatherHistory(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := weather.Query{
			City:  c.Query("city"),
			State: c.Query("state"),
		}

		var hq historyQuery
		hq.City = q.City

		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
		}

		from, err := parseTime(fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		to, err := parseTime(toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		hq.From, hq.To = from, to

		if err := validate.Struct(hq); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings, err := deps.Store.Range(q, hq.From, hq.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather cache")
		}

		return c.JSON(fiber.Map{
			"city":     q.City,
			"state":    q.State,
			"from":     hq.From,
			"to":       hq.To,
			"readings": readings,
		})
	}
}

// eventsQuery holds query parameters for the events endpoint.
type eventsQuery struct {
	City      string `validate:"required"`
	State     string
	Limit     int `validate:"min=1,max=50"`
	DaysAhead int `validate:"min=1,max=365"`
}

func handleEvents(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		req := eventsQuery{
			City:      c.Query("city", defaultCityName),
			State:     c.Query("state"),
			Limit:     c.QueryInt("limit", defaultEventsLimit),
			DaysAhead: c.QueryInt("days_ahead", defaultDaysAhead),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		q := events.Query{City: req.City, State: req.State, Limit: req.Limit, DaysAhead: req.DaysAhead}
		res := chain.Resolve(c.UserContext(), logger, deps.Events, lookupTimeout, events.Synthetic, q)

		return c.JSON(fiber.Map{
			"events":   res.Records,
			"city":     q.City,
			"state":    q.State,
			"count":    len(res.Records),
			"provider": res.Provider,
		})
	}
}

// newsQuery holds query parameters for the news endpoint.
type newsQuery struct {
	City  string `validate:"required"`
	Limit int    `validate:"min=1,max=50"`
}

func handleNews(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		req := newsQuery{
			City:  c.Query("city", defaultCityName),
			Limit: c.QueryInt("limit", defaultNewsLimit),
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		q := news.Query{City: req.City, Limit: req.Limit}
		res := chain.Resolve(c.UserContext(), logger, deps.News, lookupTimeout, news.Synthetic, q)

		return c.JSON(fiber.Map{
			"articles": res.Records,
			"city":     q.City,
			"count":    len(res.Records),
			"provider": res.Provider,
		})
	}
}

func handleGeolocation(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		query := c.Query("query")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Query parameter is required")
		}

		// Coordinates have no synthetic fallback; an exhausted chain is a
		// configuration problem, not a degraded result.
		res := chain.Resolve(c.UserContext(), logger, deps.Geo, lookupTimeout, nil, query)
		if res.AllFailed {
			return fiber.NewError(fiber.StatusInternalServerError, "geocoding not configured or failed")
		}

		return c.JSON(fiber.Map{
			"coordinates": res.Records[0],
			"query":       query,
			"provider":    res.Provider,
		})
	}
}

func handleSearch(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := Logger(c)

		term := c.Query("q", c.Query("query", "*"))
		indexType := c.Query("index_type", "events")

		if deps.Search == nil || !deps.Search.Configured() {
			return fiber.NewError(fiber.StatusInternalServerError, "Azure Search not configured")
		}

		index, ok := deps.Search.Index(indexType)
		if !ok {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":           fmt.Sprintf("Search index not configured for type: %s", indexType),
				"available_types": deps.Search.IndexTypes(),
			})
		}

		raw, err := deps.Search.Search(c.UserContext(), index, map[string]any{"search": term})
		if err != nil {
			logger.Error().Err(err).Str("index", index).Msg("search query failed")
			return fiber.NewError(fiber.StatusBadGateway, "search query failed")
		}

		return c.JSON(fiber.Map{
			"results":    raw,
			"index_used": index,
			"index_type": indexType,
		})
	}
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
