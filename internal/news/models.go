// Package news sources local news articles for a city through a provider
// fallback chain.
package news

// Query describes a news lookup.
type Query struct {
	City  string `json:"city"`
	Limit int    `json:"limit"`
}

// Article is the normalized news record.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
}
