package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citygrid/concierge/internal/search"
)

func newSearchProvider(t *testing.T, handler http.HandlerFunc) *AzureSearchProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := search.NewClient(server.Client(), server.URL, "test-key",
		map[string]string{"events": "events-index"})
	p := NewAzureSearchProvider(client, "events-index", zerolog.Nop())
	p.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return p
}

func TestAzureSearchFetchSkipsMalformedDocuments(t *testing.T) {
	p := newSearchProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "/indexes/events-index/docs/search", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["filter"], "city eq 'Norfolk'")
		assert.Contains(t, body["filter"], "state eq 'VA'")
		assert.Contains(t, body["filter"], "date ge 2026-08-28T12:00:00Z")
		assert.Equal(t, "date asc", body["orderby"])

		w.Write([]byte(`{"value":[
			{"id":"1","title":"Harborfest","date":"2026-09-01T10:00:00Z","location":"Town Point Park"},
			{"id":"2","description":"no title or date here"},
			{"id":"3","title":"Art Walk","date":"2026-09-05T18:00:00Z","city":"Norfolk","category":"Arts"}
		]}`))
	})

	events, err := p.Fetch(context.Background(), Query{City: "Norfolk", State: "VA", Limit: 5})
	require.NoError(t, err)
	require.Len(t, events, 2, "malformed document must be skipped, not fatal")

	assert.Equal(t, "Harborfest", events[0].Title)
	assert.Equal(t, "Norfolk", events[0].City, "query city backfills a missing field")
	assert.Equal(t, "General", events[0].Category)
	assert.Equal(t, "Arts", events[1].Category)
	assert.Equal(t, "Azure Search", events[1].Source)
}

func TestAzureSearchFetchServiceError(t *testing.T) {
	p := newSearchProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid key"}`))
	})

	_, err := p.Fetch(context.Background(), Query{City: "Norfolk", Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestAzureSearchConfigured(t *testing.T) {
	client := search.NewClient(http.DefaultClient, "https://svc.search.windows.net", "key",
		map[string]string{"events": "events-index"})

	assert.True(t, NewAzureSearchProvider(client, "events-index", zerolog.Nop()).Configured())
	assert.False(t, NewAzureSearchProvider(client, "", zerolog.Nop()).Configured())
	assert.False(t, NewAzureSearchProvider(nil, "events-index", zerolog.Nop()).Configured())

	unconfigured := search.NewClient(http.DefaultClient, "", "", nil)
	assert.False(t, NewAzureSearchProvider(unconfigured, "events-index", zerolog.Nop()).Configured())
}
