// Package app provides the main application setup and dependency injection.
package app

import (
	"stream-scout-go/pkg/appctx"
	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/handlers/api"
	"stream-scout-go/pkg/httpclient"
	"stream-scout-go/pkg/logging"
	"stream-scout-go/pkg/scraper"
	"stream-scout-go/pkg/server"
)

// App is the main application container.
type App struct {
	Ctx        *appctx.Context
	Server     *server.Server
	HTTPClient *httpclient.Client
	Scraper    *scraper.Scraper
}

// New creates and initializes the application.
func New() (*App, error) {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing StreamScout", "port", cfg.Port, "log_level", cfg.LogLevel)

	// Create application context
	ctx := appctx.New(cfg, log)

	// Create HTTP client
	httpClient := httpclient.New(cfg, log)
	ctx.WithHTTPClient(httpClient)

	// Create the scraper
	sc := scraper.New(cfg, log, httpClient)
	ctx.WithScraper(sc)

	// Create HTTP server
	srv := server.New(cfg, log)

	// Create API handlers
	handlers := api.NewHandlers(ctx)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Ctx:        ctx,
		Server:     srv,
		HTTPClient: httpClient,
		Scraper:    sc,
	}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.Ctx.Log.Info("starting StreamScout server", "port", a.Ctx.Config.Port)
	return a.Server.Start()
}
