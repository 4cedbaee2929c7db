// Package router wires HTTP routes to handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
    "github.com/iliyamo/event-ticketing/internal/handler"
    "github.com/iliyamo/event-ticketing/internal/middleware"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
    Checkout *handler.CheckoutHandler
    Webhook  *handler.WebhookHandler
    Scan     *handler.ScanHandler
    Buyer    *handler.BuyerHandler
    Public   *handler.PublicHandler
}

// RegisterRoutes registers all application routes.
//
// Unauthenticated: health check, public availability browsing, and the
// payment webhook (authenticated by its signed envelope rather than a
// JWT).  Buyer endpoints require any authenticated user; scan endpoints
// require the ORGANIZER or ADMIN role and are rate limited.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)
    e.GET("/v1/events/:id/tiers", h.Public.GetEventTiers)

    // The provider retries on non-2xx; no JWT middleware here, the
    // signature check inside the handler is the authentication.
    e.POST("/webhooks/payment", h.Webhook.HandlePayment)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))

    buyer := auth.Group("")
    buyer.Use(middleware.RequireRole("BUYER", "ORGANIZER", "ADMIN"))
    buyer.POST("/checkout/session", h.Checkout.CreateSession)
    buyer.GET("/me/orders", h.Buyer.MyOrders)
    buyer.GET("/me/tickets", h.Buyer.MyTickets)

    scan := auth.Group("/tickets")
    scan.Use(middleware.RequireRole("ORGANIZER", "ADMIN"))
    scan.Use(middleware.NewTokenBucket(rlCfg, rdb))
    scan.POST("/validate", h.Scan.Validate)
    scan.POST("/:id/checkin", h.Scan.Checkin)
}
