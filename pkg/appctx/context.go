// Package appctx provides the application context that holds all runtime dependencies.
package appctx

import (
	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/interfaces"
	"stream-scout-go/pkg/logging"
)

// Context holds all application runtime dependencies.
// Pass this single struct to components instead of individual parameters.
type Context struct {
	Config     *config.Config
	Log        *logging.Logger
	Scraper    interfaces.ProviderScraper
	HTTPClient interfaces.HTTPClient
	BaseURL    string
}

// New creates a new application context.
func New(cfg *config.Config, log *logging.Logger) *Context {
	return &Context{
		Config:  cfg,
		Log:     log,
		BaseURL: cfg.BaseURL,
	}
}

// WithScraper sets the scraper.
func (c *Context) WithScraper(s interfaces.ProviderScraper) *Context {
	c.Scraper = s
	return c
}

// WithHTTPClient sets the HTTP client.
func (c *Context) WithHTTPClient(client interfaces.HTTPClient) *Context {
	c.HTTPClient = client
	return c
}
