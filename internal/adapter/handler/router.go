package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/http/middleware"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg                 *config.Config
	webhookHandler      *Webhook
	subscriptionHandler *Subscription
	summaryHandler      *Summary
	serviceAuth         *middleware.ServiceAuth
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, webhookHandler *Webhook, subscriptionHandler *Subscription, summaryHandler *Summary, serviceAuth *middleware.ServiceAuth) *Router {
	return &Router{
		cfg:                 cfg,
		webhookHandler:      webhookHandler,
		subscriptionHandler: subscriptionHandler,
		summaryHandler:      summaryHandler,
		serviceAuth:         serviceAuth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: rt.cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// Graph calls this endpoint; it authenticates with clientState, not a
	// service token.
	v1.POST("/webhooks/graph", rt.webhookHandler.Handle)
	v1.GET("/webhooks/graph", rt.webhookHandler.Handle)

	// Internal control surfaces.
	protected := v1.Group("", rt.serviceAuth.Verify)
	protected.POST("/subscriptions", rt.subscriptionHandler.Command)
	protected.POST("/meetings/summary", rt.summaryHandler.Trigger)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
