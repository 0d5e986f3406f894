package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/common"
	"github.com/citygrid/concierge/internal/upstream"
)

// NewsAPIProvider fetches local articles from NewsAPI.org. When the
// city-scoped query comes back empty it retries once with a broader query
// before giving up, so the chain only falls through when there is genuinely
// nothing to show.
type NewsAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	logger  zerolog.Logger
	caller  *upstream.Caller
}

func NewNewsAPIProvider(client *http.Client, apiKey string, logger zerolog.Logger) *NewsAPIProvider {
	return &NewsAPIProvider{
		name:    "newsapi",
		apiKey:  apiKey,
		baseURL: "https://newsapi.org/v2/everything",
		logger:  logger,
		caller:  upstream.NewCaller(client, "newsapi"),
	}
}

func (p *NewsAPIProvider) Name() string { return p.name }

func (p *NewsAPIProvider) Configured() bool { return p.apiKey != "" }

func (p *NewsAPIProvider) Fetch(ctx context.Context, q Query) ([]Article, error) {
	query := fmt.Sprintf("%s OR %q OR %q", q.City, q.City+" local", q.City+" city")
	articles, err := p.search(ctx, query, q.Limit)
	if err != nil {
		return nil, err
	}

	if len(articles) == 0 {
		p.logger.Debug().Str("city", q.City).Msg("no articles for scoped query, broadening search")
		articles, err = p.search(ctx, q.City, q.Limit)
		if err != nil {
			return nil, err
		}
	}
	return articles, nil
}

func (p *NewsAPIProvider) search(ctx context.Context, query string, limit int) ([]Article, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("sortBy", "publishedAt")
		values.Set("language", "en")
		values.Set("pageSize", strconv.Itoa(limit))
		values.Set("apiKey", p.apiKey)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := p.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q: %s", payload.Status, payload.Message)
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		// Title and URL identify an article; skip records missing either.
		if raw.Title == "" || raw.URL == "" {
			continue
		}

		description := raw.Description
		if description == "" {
			description = common.Truncate(raw.Content, 200)
		}

		source := raw.Source.Name
		if source == "" {
			source = "Unknown Source"
		}

		articles = append(articles, Article{
			Title:       raw.Title,
			Description: description,
			URL:         raw.URL,
			PublishedAt: raw.PublishedAt,
			Source:      source,
		})
	}
	return articles, nil
}
