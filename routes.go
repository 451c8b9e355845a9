// Package main is the entry point for the StockPulse API
package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/stockpulse/stockpulseapi/api/analytics"
	"github.com/stockpulse/stockpulseapi/api/instrument"
	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/api/session"
	"github.com/stockpulse/stockpulseapi/api/stream"
	"github.com/stockpulse/stockpulseapi/config"
	"github.com/stockpulse/stockpulseapi/services"
	"github.com/stockpulse/stockpulseapi/shared/middleware"
	"github.com/stockpulse/stockpulseapi/shared/response"
)

// appServices holds the constructed services shared between the routes and
// the poller.
type appServices struct {
	session    *session.Service
	instrument *instrument.Service
	quoteRepo  *quote.Repository
	analytics  *analytics.Service
	hub        *stream.Hub
	poller     *services.Poller
}

// setupRoutes configures the routes for the API
func setupRoutes(e *echo.Echo, svcs *appServices) {

	// Create a group for all API routes
	api := e.Group("/api")

	// Index route
	api.GET("/", indexRoute)

	// Session routes - Unprotected
	sessionHandler := session.NewHandler(svcs.session)
	sessionGroup := api.Group("/session")
	sessionGroup.POST("/login", sessionHandler.GenerateSession)
	sessionGroup.POST("/valid", sessionHandler.CheckSessionValid)

	// Create a group for protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(svcs.session))

	// Instrument routes (protected)
	instrumentHandler := instrument.NewHandler(svcs.instrument)
	instrumentGroup := protected.Group("/instrument")
	instrumentGroup.POST("/update", instrumentHandler.UpdateInstruments)
	instrumentGroup.GET("/query", instrumentHandler.QueryInstruments)
	instrumentGroup.GET("/watch", instrumentHandler.GetWatchInstruments)
	instrumentGroup.POST("/watch", instrumentHandler.AddWatchInstruments)
	instrumentGroup.DELETE("/watch", instrumentHandler.DeleteWatchInstruments)

	// Quote routes (protected)
	quoteHandler := quote.NewHandler(svcs.quoteRepo)
	quoteGroup := protected.Group("/quote")
	quoteGroup.GET("", quoteHandler.GetQuotes)
	quoteGroup.GET("/:token", quoteHandler.GetQuote)

	// Analytics routes (protected)
	analyticsHandler := analytics.NewHandler(svcs.analytics)
	analyticsGroup := protected.Group("/analytics")
	analyticsGroup.GET("/:token", analyticsHandler.GetAnalytics)
	analyticsGroup.POST("/bulk", analyticsHandler.GetBulkAnalytics)

	// Stream routes (protected)
	streamHandler := stream.NewHandler(svcs.hub)
	streamGroup := protected.Group("/stream")
	streamGroup.GET("/quotes", streamHandler.StreamQuotes)

	// Poller status (protected)
	protected.GET("/poller/status", func(c echo.Context) error {
		return response.SuccessResponse(c, map[string]interface{}{
			"poller":  svcs.poller.Status(),
			"clients": svcs.hub.ClientCount(),
		})
	})

}

// indexRoute sets up the index route for the API
func indexRoute(c echo.Context) error {
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	message := fmt.Sprintf("%s %s", cfg.APIName, cfg.APIVersion)
	return response.SuccessResponse(c, message)
}
