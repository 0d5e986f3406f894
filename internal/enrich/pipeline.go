// Package enrich splices live city context (weather, events) into outgoing
// chat messages when the message text asks for it.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/chain"
	"github.com/citygrid/concierge/internal/common"
	"github.com/citygrid/concierge/internal/events"
	"github.com/citygrid/concierge/internal/weather"
)

const (
	lookupTimeout = 10 * time.Second

	// maxEventsRendered caps the events listed in a context block.
	maxEventsRendered = 3
	// eventFetchLimit leaves headroom over the render cap so a skipped
	// record doesn't empty the list.
	eventFetchLimit = 5
	eventDaysAhead  = 30

	dateUnknown     = "TBD"
	locationUnknown = "TBD"
)

// Context is the per-call enrichment state: what was fetched and which
// categories the message matched. Read-only once the message is built.
type Context struct {
	Weather    *weather.Reading
	Events     []events.Event
	Classified Classification
}

// Pipeline classifies inbound messages and resolves the weather and events
// chains to build context blocks.
type Pipeline struct {
	rules   RuleTable
	weather []chain.Provider[weather.Query, weather.Reading]
	events  []chain.Provider[events.Query, events.Event]
}

func NewPipeline(
	rules RuleTable,
	weatherChain []chain.Provider[weather.Query, weather.Reading],
	eventsChain []chain.Provider[events.Query, events.Event],
) *Pipeline {
	return &Pipeline{rules: rules, weather: weatherChain, events: eventsChain}
}

// Enrich returns the message with context blocks appended, and whether
// anything was appended. Messages matching no rule pass through unchanged.
// The user's original text is never replaced, only appended to.
func (p *Pipeline) Enrich(ctx context.Context, logger zerolog.Logger, message, city string) (string, bool) {
	cls := p.rules.Classify(message)
	if !cls.Any() {
		return message, false
	}

	q := splitCity(city)

	ec := Context{Classified: cls}
	res := chain.Resolve(ctx, logger, p.weather, lookupTimeout, weather.Synthetic, q)
	if len(res.Records) == 0 {
		return message, false
	}
	ec.Weather = &res.Records[0]

	blocks := []string{weatherBlock(city, *ec.Weather)}

	// Event recommendations are conditioned on live weather. Without a real
	// reading there is nothing meaningful to condition on, so the lookup is
	// skipped entirely.
	if cls.Events && !ec.Weather.Synthetic {
		eres := chain.Resolve(ctx, logger, p.events, lookupTimeout, events.Synthetic, events.Query{
			City:      q.City,
			State:     q.State,
			Limit:     eventFetchLimit,
			DaysAhead: eventDaysAhead,
		})
		ec.Events = eres.Records
		if len(ec.Events) > 0 {
			blocks = append(blocks, eventsBlock(city, *ec.Weather, ec.Events))
		}
	}

	logger.Info().
		Bool("weather_match", cls.Weather).
		Bool("events_match", cls.Events).
		Bool("synthetic_weather", ec.Weather.Synthetic).
		Int("events", len(ec.Events)).
		Msg("message enriched with city context")

	return message + "\n\n" + strings.Join(blocks, "\n\n"), true
}

func weatherBlock(city string, r weather.Reading) string {
	text := fmt.Sprintf(
		"Current weather in %s: %.0f°F, %s. Feels like %.0f°F. Humidity: %d%%. Wind: %.0f mph.",
		city, r.TemperatureF, r.Description, r.FeelsLikeF, r.HumidityPct, r.WindMPH,
	)
	return fmt.Sprintf("[Weather Context: %s]", text)
}

func eventsBlock(city string, r weather.Reading, list []events.Event) string {
	if len(list) > maxEventsRendered {
		list = list[:maxEventsRendered]
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		location := e.Location
		if location == "" {
			location = locationUnknown
		}
		lines = append(lines, fmt.Sprintf("- %s on %s at %s", e.Title, formatEventDate(e.Date), location))
	}

	return fmt.Sprintf("[Upcoming Events in %s: %s\n%s]",
		city, recommendationNote(r.TemperatureF, r.Description), strings.Join(lines, "\n"))
}

// recommendationNote maps the current conditions to a fixed guidance line.
// Thresholds are deliberate: warm and clear favors outdoor events, cold or
// precipitation favors indoor.
func recommendationNote(tempF float64, description string) string {
	condition := strings.ToLower(description)
	switch {
	case tempF >= 70 && common.HasAny(condition, "sunny", "clear"):
		return "Perfect weather for outdoor events!"
	case tempF >= 60 && common.HasAny(condition, "partly", "clear"):
		return "Nice weather for outdoor activities."
	case tempF < 50 || common.HasAny(condition, "rain", "snow"):
		return "Consider indoor events due to weather."
	default:
		return "Check event details for indoor/outdoor status."
	}
}

// formatEventDate renders an ISO 8601 date for humans, or "TBD" when the
// date is missing or unparsable.
func formatEventDate(iso string) string {
	if iso == "" {
		return dateUnknown
	}
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Some sources omit the zone designator.
		ts, err = time.Parse("2006-01-02T15:04:05", iso)
	}
	if err != nil {
		return dateUnknown
	}
	return ts.Format("Jan 2 at 3:04 PM")
}

// splitCity parses a "City, State" display string into a lookup query.
func splitCity(city string) weather.Query {
	parts := strings.SplitN(city, ",", 2)
	q := weather.Query{City: strings.TrimSpace(parts[0])}
	if q.City == "" {
		q.City = "Norfolk"
	}
	if len(parts) > 1 {
		q.State = strings.TrimSpace(parts[1])
	}
	return q
}
