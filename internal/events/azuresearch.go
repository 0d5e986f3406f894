package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/search"
)

// AzureSearchProvider queries the curated events index in Azure Cognitive
// Search. First entry in the events chain.
type AzureSearchProvider struct {
	name   string
	client *search.Client
	index  string
	logger zerolog.Logger
	now    func() time.Time
}

func NewAzureSearchProvider(client *search.Client, index string, logger zerolog.Logger) *AzureSearchProvider {
	return &AzureSearchProvider{
		name:   "azuresearch",
		client: client,
		index:  index,
		logger: logger,
		now:    time.Now,
	}
}

func (p *AzureSearchProvider) Name() string { return p.name }

func (p *AzureSearchProvider) Configured() bool {
	return p.client != nil && p.client.Configured() && p.index != ""
}

func (p *AzureSearchProvider) Fetch(ctx context.Context, q Query) ([]Event, error) {
	var filters []string
	if q.City != "" {
		filters = append(filters, fmt.Sprintf("city eq '%s'", q.City))
	}
	if q.State != "" {
		filters = append(filters, fmt.Sprintf("state eq '%s'", q.State))
	}
	// Only upcoming events.
	filters = append(filters, fmt.Sprintf("date ge %s", p.now().UTC().Format(time.RFC3339)))

	body := map[string]any{
		"search":  "*",
		"filter":  strings.Join(filters, " and "),
		"top":     q.Limit,
		"orderby": "date asc",
	}

	raw, err := p.client.Search(ctx, p.index, body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Value []eventDoc `json:"value"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	// Partial success: a bad document is skipped, not fatal for the batch.
	events := make([]Event, 0, len(payload.Value))
	for _, doc := range payload.Value {
		event, err := normalizeSearchDoc(doc, q)
		if err != nil {
			p.logger.Warn().Err(err).Str("doc_id", doc.ID).Msg("skipping malformed event document")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

type eventDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	City        string `json:"city"`
	State       string `json:"state"`
	Category    string `json:"category"`
	URL         string `json:"url"`
}

// normalizeSearchDoc maps an index document into an Event. Title and date
// identify the record and are required; the rest defaults.
func normalizeSearchDoc(doc eventDoc, q Query) (Event, error) {
	if doc.Title == "" || doc.Date == "" {
		return Event{}, fmt.Errorf("event document missing title or date")
	}

	city := doc.City
	if city == "" {
		city = q.City
	}
	state := doc.State
	if state == "" {
		state = q.State
	}
	category := doc.Category
	if category == "" {
		category = "General"
	}

	return Event{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Date:        doc.Date,
		Location:    doc.Location,
		City:        city,
		State:       state,
		Category:    category,
		URL:         doc.URL,
		Source:      "Azure Search",
	}, nil
}
