package handler

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// tierCacheTTL bounds how stale the public availability view may be.
// remaining_qty shown here is advisory anyway; the guarded decrement at
// fulfillment is the real gate.
const tierCacheTTL = 10 * time.Second

// PublicHandler exposes unauthenticated browse endpoints.  Responses
// are cached briefly in Redis when a client is available; without Redis
// every request hits the database, which is fine at browse volumes.
type PublicHandler struct {
    Tiers *repository.TierRepo
    Cache *redis.Client
}

// NewPublicHandler constructs a PublicHandler.  cache may be nil.
func NewPublicHandler(tiers *repository.TierRepo, cache *redis.Client) *PublicHandler {
    if tiers == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{Tiers: tiers, Cache: cache}
}

// GetEventTiers handles GET /v1/events/:id/tiers.  Draft and unknown
// events are both 404 so drafts do not leak.
func (h *PublicHandler) GetEventTiers(c echo.Context) error {
    eventID := c.Param("id")
    if eventID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx := c.Request().Context()
    cacheKey := "tiers:" + eventID

    if h.Cache != nil {
        if cached, err := h.Cache.Get(ctx, cacheKey).Bytes(); err == nil {
            return c.JSONBlob(http.StatusOK, cached)
        }
    }

    tiers, err := h.Tiers.ListPublished(ctx, eventID)
    if err != nil {
        if err == repository.ErrEventNotPublished {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    body, err := json.Marshal(echo.Map{"tiers": tiers})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encoding error"})
    }
    if h.Cache != nil {
        _ = h.Cache.Set(ctx, cacheKey, body, tierCacheTTL).Err()
    }
    return c.JSONBlob(http.StatusOK, body)
}
