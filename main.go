// Package main is the entry point for the StockPulse API
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockpulse/stockpulseapi/api/analytics"
	"github.com/stockpulse/stockpulseapi/api/instrument"
	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/api/session"
	"github.com/stockpulse/stockpulseapi/api/stream"
	"github.com/stockpulse/stockpulseapi/config"
	"github.com/stockpulse/stockpulseapi/database"
	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
	"github.com/stockpulse/stockpulseapi/services"
	"github.com/stockpulse/stockpulseapi/shared/logger"
	"github.com/stockpulse/stockpulseapi/shared/middleware"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

const smartAPITimeout = 15 * time.Second

func main() {
	// Setup logger
	defer zaplogger.Sync()
	zaplogger.SetLogLevel("debug")

	// startUpMessage
	zaplogger.Info(config.SingleLine)
	zaplogger.Info("StockPulse API")

	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		zaplogger.Fatal("failed to load configuration", zaplogger.Fields{"error": err})
	} else {
		zaplogger.Info("  * loaded")
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup middleware
	middleware.SetupLoggerMiddleware(e)

	// Connect to Postgres
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	// Connect Redis
	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Database logger for service events
	dbLogger, err := logger.New(db)
	if err != nil {
		log.Fatalf("Failed to create db logger: %v", err)
	}

	// Upstream broker client
	smartClient := smartapi.New(cfg.SmartAPIBaseUrl, cfg.SmartAPIKey, smartAPITimeout)

	// Build services
	sessionService := session.NewService(db, smartClient, cfg.SmartAPIClientCode, cfg.SmartAPIPin, cfg.SmartAPITotpSecret)
	instrumentService := instrument.NewService(db)
	quoteRepo := quote.NewRepository(redisClient)
	quoteFetcher := quote.NewFetcher(smartClient, instrumentService)
	analyticsService := analytics.NewService(db, cfg.CacheTTL(), instrumentService, sessionService, quoteFetcher)

	// Websocket hub
	hub := stream.NewHub()
	go hub.Run()

	// Postgres to Redis quote relay
	go services.PublishQuotesToRedisChannel(db, redisClient, cfg.PostgresDsn)

	// Poller
	poller := services.NewPoller(cfg, dbLogger, quoteFetcher, quoteRepo, hub, sessionService, analyticsService, instrumentService)

	// Setup routes
	svcs := &appServices{
		session:    sessionService,
		instrument: instrumentService,
		quoteRepo:  quoteRepo,
		analytics:  analyticsService,
		hub:        hub,
		poller:     poller,
	}
	setupRoutes(e, svcs)

	// Start the polling jobs
	poller.Start()

	// Start the server
	startServer(e, cfg)

}

// startServer starts the Echo server on the specified port
func startServer(e *echo.Echo, cfg *config.Config) {
	port := cfg.ServerPort
	if port == "" {
		port = "3008"
	}
	startupMessage := fmt.Sprintf("%s %s Server [:%s] started", cfg.APIName, cfg.APIVersion, cfg.ServerPort)

	zaplogger.Info(config.SingleLine)
	zaplogger.Info(startupMessage)
	zaplogger.Info(config.SingleLine)
	e.Logger.Infof(startupMessage)
	e.Logger.Fatal(e.Start(":" + port))
}
