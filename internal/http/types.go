package http

import (
	"time"

	"scrapemap/internal/selector"
)

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

// SitemapListResponse lists stored sitemap ids.
type SitemapListResponse struct {
	Success  bool     `json:"success"`
	Sitemaps []string `json:"sitemaps"`
}

// RecordsResponse carries a sitemap's scraped records.
type RecordsResponse struct {
	Success bool              `json:"success"`
	Columns []string          `json:"columns"`
	Records []selector.Record `json:"records"`
}

// RunResponse reports a scrape run.
type RunResponse struct {
	Success     bool       `json:"success"`
	ID          string     `json:"id"`
	SitemapID   string     `json:"sitemapId"`
	Status      string     `json:"status"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}
