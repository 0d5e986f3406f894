package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/common"
	"github.com/citygrid/concierge/internal/upstream"
)

// EventbriteProvider searches public Eventbrite listings near the city.
type EventbriteProvider struct {
	name    string
	token   string
	baseURL string
	logger  zerolog.Logger
	caller  *upstream.Caller
	now     func() time.Time
}

func NewEventbriteProvider(client *http.Client, token string, logger zerolog.Logger) *EventbriteProvider {
	return &EventbriteProvider{
		name:    "eventbrite",
		token:   token,
		baseURL: "https://www.eventbriteapi.com/v3/events/search/",
		logger:  logger,
		caller:  upstream.NewCaller(client, "eventbrite"),
		now:     time.Now,
	}
}

func (p *EventbriteProvider) Name() string { return p.name }

func (p *EventbriteProvider) Configured() bool { return p.token != "" }

func (p *EventbriteProvider) Fetch(ctx context.Context, q Query) ([]Event, error) {
	location := q.City
	if q.State != "" {
		location = fmt.Sprintf("%s, %s", q.City, q.State)
	}

	buildRequest := func() (*http.Request, error) {
		now := p.now().UTC()
		values := url.Values{}
		values.Set("q", location)
		values.Set("location.address", location)
		values.Set("location.within", "25mi")
		values.Set("start_date.range_start", now.Format(time.RFC3339))
		values.Set("start_date.range_end", now.AddDate(0, 0, q.DaysAhead).Format(time.RFC3339))
		values.Set("expand", "venue")
		values.Set("status", "live")
		values.Set("order_by", "start_asc")

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+p.token)
		return req, nil
	}

	resp, err := p.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Events []eventbriteEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(payload.Events))
	for _, raw := range payload.Events {
		if len(events) >= q.Limit {
			break
		}
		event, err := normalizeEventbrite(raw, q)
		if err != nil {
			p.logger.Warn().Err(err).Str("event_id", raw.ID).Msg("skipping malformed eventbrite event")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

type eventbriteEvent struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Start struct {
		UTC string `json:"utc"`
	} `json:"start"`
	URL   string `json:"url"`
	Venue *struct {
		Name string `json:"name"`
	} `json:"venue"`
}

func normalizeEventbrite(raw eventbriteEvent, q Query) (Event, error) {
	if raw.Name.Text == "" || raw.Start.UTC == "" {
		return Event{}, fmt.Errorf("eventbrite event missing name or start time")
	}

	var location string
	if raw.Venue != nil {
		location = raw.Venue.Name
	}

	var description string
	if raw.Description.Text != "" {
		description = common.Truncate(raw.Description.Text, 200)
	}

	return Event{
		ID:          "eventbrite-" + raw.ID,
		Title:       raw.Name.Text,
		Description: description,
		Date:        raw.Start.UTC,
		Location:    location,
		City:        q.City,
		State:       q.State,
		Category:    "General",
		URL:         raw.URL,
		Source:      "Eventbrite",
	}, nil
}
