package enrich

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citygrid/concierge/internal/chain"
	"github.com/citygrid/concierge/internal/events"
	"github.com/citygrid/concierge/internal/weather"
)

type fakeWeather struct {
	reading weather.Reading
}

func (f *fakeWeather) Name() string     { return "fake-weather" }
func (f *fakeWeather) Configured() bool { return true }

func (f *fakeWeather) Fetch(context.Context, weather.Query) ([]weather.Reading, error) {
	return []weather.Reading{f.reading}, nil
}

type fakeEvents struct {
	events []events.Event
	calls  int
}

func (f *fakeEvents) Name() string     { return "fake-events" }
func (f *fakeEvents) Configured() bool { return true }

func (f *fakeEvents) Fetch(context.Context, events.Query) ([]events.Event, error) {
	f.calls++
	return f.events, nil
}

func fiveEvents() []events.Event {
	date := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC).Format(time.RFC3339)
	list := make([]events.Event, 5)
	for i := range list {
		list[i] = events.Event{Title: "Event", Date: date, Location: "Downtown"}
	}
	list[1].Date = "not-a-date"
	list[2].Location = ""
	return list
}

func newTestPipeline(w *fakeWeather, e *fakeEvents) *Pipeline {
	var weatherChain []chain.Provider[weather.Query, weather.Reading]
	if w != nil {
		weatherChain = append(weatherChain, w)
	}
	var eventsChain []chain.Provider[events.Query, events.Event]
	if e != nil {
		eventsChain = append(eventsChain, e)
	}
	return NewPipeline(DefaultRules(), weatherChain, eventsChain)
}

func TestEnrichNoKeywordsPassesThrough(t *testing.T) {
	p := newTestPipeline(nil, nil)

	message := "tell me a joke"
	enriched, ok := p.Enrich(context.Background(), zerolog.Nop(), message, "Norfolk, VA")

	assert.False(t, ok)
	assert.Equal(t, message, enriched)
}

func TestEnrichSyntheticWeatherStillAttachesContext(t *testing.T) {
	// No providers configured at all: the chain degrades to synthetic data
	// and the weather block is still built from it.
	p := newTestPipeline(nil, nil)

	enriched, ok := p.Enrich(context.Background(), zerolog.Nop(),
		"What's the weather in Norfolk?", "Norfolk, VA")

	require.True(t, ok)
	assert.True(t, strings.HasPrefix(enriched, "What's the weather in Norfolk?"),
		"original text must be preserved verbatim")
	assert.Contains(t, enriched, "[Weather Context:")
	assert.Contains(t, enriched, "72°F")
}

func TestEnrichNoEventsWithoutLiveWeather(t *testing.T) {
	fe := &fakeEvents{events: fiveEvents()}
	p := newTestPipeline(nil, fe) // weather degrades to synthetic

	enriched, ok := p.Enrich(context.Background(), zerolog.Nop(),
		"any fun events and weather this weekend?", "Norfolk, VA")

	require.True(t, ok)
	assert.NotContains(t, enriched, "[Upcoming Events")
	assert.Equal(t, 0, fe.calls, "events lookup must be skipped without live weather")
}

func TestEnrichEventsWithColdSnowyWeather(t *testing.T) {
	fw := &fakeWeather{reading: weather.Reading{
		TemperatureF: 40,
		FeelsLikeF:   35,
		Description:  "Light Snow",
		HumidityPct:  80,
		WindMPH:      12,
	}}
	fe := &fakeEvents{events: fiveEvents()}
	p := newTestPipeline(fw, fe)

	enriched, ok := p.Enrich(context.Background(), zerolog.Nop(),
		"suggest some things to do", "Norfolk, VA")

	require.True(t, ok)
	assert.Contains(t, enriched, "Consider indoor events due to weather.")
	assert.Equal(t, 3, strings.Count(enriched, "- Event on"), "at most 3 events are rendered")
	assert.Contains(t, enriched, "Mar 14 at 7:30 PM")
	assert.Contains(t, enriched, "on TBD")
	assert.Contains(t, enriched, "at TBD")
}

func TestEnrichWeatherOnlyMessageSkipsEvents(t *testing.T) {
	fw := &fakeWeather{reading: weather.Reading{TemperatureF: 75, Description: "Sunny"}}
	fe := &fakeEvents{events: fiveEvents()}
	p := newTestPipeline(fw, fe)

	enriched, ok := p.Enrich(context.Background(), zerolog.Nop(),
		"how hot is it today?", "Norfolk, VA")

	require.True(t, ok)
	assert.Contains(t, enriched, "[Weather Context:")
	assert.NotContains(t, enriched, "[Upcoming Events")
	assert.Equal(t, 0, fe.calls)
}

func TestClassifyOverlappingTerms(t *testing.T) {
	rules := DefaultRules()

	// "outdoor" is an event trigger even in weather-only phrasing, and
	// "weather" fires the weather lookup: both categories match.
	cls := rules.Classify("is it good weather for outdoor stuff")
	assert.True(t, cls.Weather)
	assert.True(t, cls.Events)

	cls = rules.Classify("SUGGEST an EVENT")
	assert.False(t, cls.Weather)
	assert.True(t, cls.Events)

	cls = rules.Classify("hello")
	assert.False(t, cls.Any())
}

func TestRecommendationNote(t *testing.T) {
	tests := []struct {
		temp float64
		desc string
		want string
	}{
		{75, "Sunny", "Perfect weather for outdoor events!"},
		{72, "Clear skies", "Perfect weather for outdoor events!"},
		{65, "Partly cloudy", "Nice weather for outdoor activities."},
		{40, "light snow", "Consider indoor events due to weather."},
		{65, "Heavy rain", "Consider indoor events due to weather."},
		{45, "Sunny", "Consider indoor events due to weather."},
		{65, "Overcast", "Check event details for indoor/outdoor status."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, recommendationNote(tt.temp, tt.desc),
			"temp=%.0f desc=%q", tt.temp, tt.desc)
	}
}

func TestFormatEventDate(t *testing.T) {
	assert.Equal(t, "Mar 14 at 7:30 PM", formatEventDate("2026-03-14T19:30:00Z"))
	assert.Equal(t, "Mar 14 at 7:30 PM", formatEventDate("2026-03-14T19:30:00"))
	assert.Equal(t, "TBD", formatEventDate(""))
	assert.Equal(t, "TBD", formatEventDate("next tuesday"))
}
