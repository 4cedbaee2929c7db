package main

import (
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticketing/internal/config"
    "github.com/iliyamo/event-ticketing/internal/database"
    "github.com/iliyamo/event-ticketing/internal/fulfillment"
    "github.com/iliyamo/event-ticketing/internal/handler"
    "github.com/iliyamo/event-ticketing/internal/payments"
    "github.com/iliyamo/event-ticketing/internal/qr"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/router"
    queue_publisher "github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
    _ = godotenv.Load() // optional .env for local development

    log := logrus.New()
    log.SetFormatter(&logrus.JSONFormatter{})

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.WithError(err).Fatal("database connection failed")
    }
    defer db.Close()

    rdb := config.NewRedisClient() // nil disables caching and rate limiting
    if rdb == nil {
        log.Warn("redis unavailable, caching and rate limiting disabled")
    }

    tiers := repository.NewTierRepo(db)
    orders := repository.NewOrderRepo(db)
    tickets := repository.NewTicketRepo(db)
    checkins := repository.NewCheckinRepo(db)
    events := repository.NewPaymentEventRepo(db)

    codec := qr.New(cfg.TicketQRSecret, time.Duration(cfg.TicketQRTTLDays)*24*time.Hour)
    provider := payments.NewHTTPClient(cfg.ProviderAPIBase, cfg.ProviderSecretKey)
    processor := fulfillment.NewProcessor(db, events, orders, tiers, tickets, log)

    h := router.Handlers{
        Checkout: handler.NewCheckoutHandler(tiers, orders, provider, cfg.WebBaseURL, log),
        Webhook:  handler.NewWebhookHandler(cfg.PaymentWebhookSecret, processor, queue_publisher.PublishOrderFulfilled, log),
        Scan:     handler.NewScanHandler(codec, tickets, checkins),
        Buyer:    handler.NewBuyerHandler(orders, tickets, codec, log),
        Public:   handler.NewPublicHandler(tiers, rdb),
    }

    e := echo.New()
    e.HideBanner = true
    router.RegisterRoutes(e, h, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

    go queue.StartFulfillmentConsumer(log)

    addr := ":" + cfg.Port
    log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
    if err := e.Start(addr); err != nil {
        log.WithError(err).Fatal("server stopped")
    }
}
