package domain

// NewsArticle is one market-news item from the external news provider.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
}
