// Package marketaux fetches market news from the Marketaux API.
package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"portfoliotrack/internal/domain"
	"portfoliotrack/internal/ports"
)

const defaultBaseURL = "https://api.marketaux.com/v1"

// Client implements ports.NewsProvider against the Marketaux news API.
type Client struct {
	apiKey     string
	baseURL    string
	countries  string
	language   string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration for the Marketaux client.
type Config struct {
	APIKey    string
	BaseURL   string        // Defaults to the public endpoint
	Countries string        // Comma-separated country filter, e.g. "us"
	Language  string        // Language filter, e.g. "en"
	Timeout   time.Duration // HTTP timeout; defaults to 15s
	Logger    ports.Logger
}

// New creates a new Marketaux client. An empty API key is accepted;
// requests then fail with ErrNewsUnavailable so callers can degrade.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Marketaux client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		countries:  cfg.Countries,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

var _ ports.NewsProvider = (*Client)(nil)

// newsSource accepts both shapes Marketaux uses for the source field:
// a bare string or an object with a name.
type newsSource struct {
	Name string
}

func (s *newsSource) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		s.Name = obj.Name
	}
	return nil
}

type newsResponse struct {
	Data []struct {
		Title       string     `json:"title"`
		URL         string     `json:"url"`
		Source      newsSource `json:"source"`
		PublishedAt string     `json:"published_at"`
	} `json:"data"`
}

// LatestNews retrieves up to limit recent articles matching the
// configured country and language filters. Items without a title or URL
// are dropped.
func (c *Client) LatestNews(ctx context.Context, limit int) ([]domain.NewsArticle, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no API key configured: %w", ports.ErrNewsUnavailable)
	}
	if limit <= 0 {
		limit = 6
	}

	params := url.Values{
		"api_token": {c.apiKey},
		"limit":     {strconv.Itoa(limit)},
	}
	if c.countries != "" {
		params.Set("countries", c.countries)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news/all?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building news request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w: %v", ports.ErrNewsUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading news response: %w: %v", ports.ErrNewsUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d: %w", resp.StatusCode, ports.ErrNewsUnavailable)
	}

	var nr newsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("decoding news response: %w", ports.ErrNewsUnavailable)
	}

	articles := make([]domain.NewsArticle, 0, len(nr.Data))
	for _, item := range nr.Data {
		if item.Title == "" || item.URL == "" {
			continue
		}
		source := item.Source.Name
		if source == "" {
			source = "unknown"
		}
		articles = append(articles, domain.NewsArticle{
			Title:       item.Title,
			URL:         item.URL,
			Source:      source,
			PublishedAt: item.PublishedAt,
		})
	}

	c.logger.Debug(ctx, "News fetched", map[string]interface{}{"articles": len(articles)})
	return articles, nil
}
