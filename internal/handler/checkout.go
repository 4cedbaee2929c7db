package handler

import (
    "fmt"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/payments"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// maxCheckoutQty caps a single checkout session; larger group sales go
// through the organizer instead.
const maxCheckoutQty = 10

// CheckoutHandler creates pending orders and hands the buyer off to the
// payment provider's hosted checkout.  It validates availability but
// reserves nothing: inventory only moves when the payment confirmation
// is processed, so an abandoned checkout leaves a pending order behind
// forever and that is expected.
type CheckoutHandler struct {
    Tiers      *repository.TierRepo
    Orders     *repository.OrderRepo
    Provider   payments.Client
    WebBaseURL string
    Log        *logrus.Logger
}

// NewCheckoutHandler constructs a CheckoutHandler.  All dependencies
// must be non-nil.
func NewCheckoutHandler(tiers *repository.TierRepo, orders *repository.OrderRepo, provider payments.Client, webBaseURL string, log *logrus.Logger) *CheckoutHandler {
    if tiers == nil || orders == nil || provider == nil || log == nil {
        panic("nil dependency passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{Tiers: tiers, Orders: orders, Provider: provider, WebBaseURL: webBaseURL, Log: log}
}

// CreateSession handles POST /v1/checkout/session.  The body carries
// {tier_id, quantity}; quantity defaults to 1 and is capped at
// maxCheckoutQty.  On success it responds 201 with the provider's
// redirect URL and the pending order id.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        TierID   string `json:"tier_id"`
        Quantity int    `json:"quantity"`
    }
    if err := c.Bind(&body); err != nil || body.TierID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Quantity == 0 {
        body.Quantity = 1
    }
    if body.Quantity < 1 || body.Quantity > maxCheckoutQty {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be between 1 and 10"})
    }

    ctx := c.Request().Context()
    tier, err := h.Tiers.GetForCheckout(ctx, body.TierID)
    if err != nil {
        if err == repository.ErrTierNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket tier not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if tier.EventStatus != model.EventStatusPublished {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event is not published"})
    }
    now := time.Now().UTC()
    if now.Before(tier.SalesStart) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket sales have not started"})
    }
    if tier.SalesEnd != nil && now.After(*tier.SalesEnd) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket sales have ended"})
    }
    // Best-effort availability check only.  Peers may sell the same
    // units before this order's payment confirms; the guarded decrement
    // at fulfillment time is the real gate.
    if tier.RemainingQty < body.Quantity {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "not enough tickets remaining"})
    }

    order := &model.Order{
        ID:               uuid.NewString(),
        EventID:          tier.EventID,
        UserID:           userID,
        Status:           model.OrderStatusPending,
        AmountTotalCents: tier.PriceCents * int64(body.Quantity),
        Currency:         tier.Currency,
    }
    item := model.OrderItem{
        OrderID:        order.ID,
        TierID:         tier.TierID,
        Qty:            body.Quantity,
        UnitPriceCents: tier.PriceCents,
    }

    tx, err := h.Orders.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Orders.CreateTx(ctx, tx, order); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
    }
    if err := h.Orders.CreateItemsTx(ctx, tx, []model.OrderItem{item}); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    // The provider call happens after the order transaction commits so
    // no transaction is ever held open across the network.  If the
    // call fails the order simply stays pending, like any abandoned
    // checkout.
    session, err := h.Provider.CreateCheckoutSession(ctx, payments.CreateSessionParams{
        OrderID:         order.ID,
        ItemName:        fmt.Sprintf("%s - %s", tier.EventTitle, tier.TierName),
        Currency:        tier.Currency,
        UnitAmountCents: tier.PriceCents,
        Quantity:        body.Quantity,
        SuccessURL:      h.WebBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
        CancelURL:       h.WebBaseURL + "/events/" + tier.EventID,
    })
    if err != nil {
        h.Log.WithError(err).WithField("order_id", order.ID).Error("provider checkout session creation failed")
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
    }
    if err := h.Orders.SetProviderSession(ctx, order.ID, session.ID); err != nil {
        // The session id also travels in provider metadata, so the
        // confirmation can still resolve the order by id.
        h.Log.WithError(err).WithField("order_id", order.ID).Warn("failed to record provider session id")
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "checkout_url": session.URL,
        "order_id":     order.ID,
    })
}
