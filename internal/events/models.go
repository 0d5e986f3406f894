// Package events sources upcoming public events for a city through a
// provider fallback chain.
package events

// Query describes an events lookup.
type Query struct {
	City      string `json:"city"`
	State     string `json:"state"`
	Limit     int    `json:"limit"`
	DaysAhead int    `json:"days_ahead"`
}

// Event is the normalized event record. Date is the source's ISO 8601
// string; rendering parses it and falls back to "TBD" when unparsable.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	City        string `json:"city"`
	State       string `json:"state"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}
