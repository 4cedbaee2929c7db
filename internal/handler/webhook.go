package handler

import (
    "context"
    "io"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticketing/internal/fulfillment"
    "github.com/iliyamo/event-ticketing/internal/payments"
    "github.com/iliyamo/event-ticketing/internal/queue"
)

// Confirmer processes one payment confirmation.  Satisfied by
// *fulfillment.Processor; the indirection lets handler tests substitute
// a stub.
type Confirmer interface {
    Process(ctx context.Context, conf fulfillment.Confirmation) (fulfillment.Result, error)
}

// Publisher forwards a fulfilled order to the message broker.  Failures
// are ignored by the handler; delivery email is best effort.
type Publisher func(ctx context.Context, event queue.OrderFulfilledEvent) error

// WebhookHandler receives payment provider deliveries.  The envelope
// signature is verified before anything else; only then is the payload
// parsed and handed to the fulfillment processor.
type WebhookHandler struct {
    Secret    string
    Processor Confirmer
    Publish   Publisher
    Log       *logrus.Logger
}

// NewWebhookHandler constructs a WebhookHandler.  publish may be nil
// when no broker is configured.
func NewWebhookHandler(secret string, processor Confirmer, publish Publisher, log *logrus.Logger) *WebhookHandler {
    if secret == "" || processor == nil || log == nil {
        panic("invalid dependency passed to NewWebhookHandler")
    }
    return &WebhookHandler{Secret: secret, Processor: processor, Publish: publish, Log: log}
}

// HandlePayment handles POST /webhooks/payment.  Response status drives
// the provider's retry behavior: 2xx acknowledges the delivery, 4xx
// rejects it permanently (bad signature, malformed payload), 5xx asks
// for a retry (transient storage failure or detected inconsistency).
func (h *WebhookHandler) HandlePayment(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
    }
    sig := c.Request().Header.Get(payments.SignatureHeader)
    if err := payments.VerifySignature(body, sig, h.Secret, time.Now()); err != nil {
        h.Log.Warn("payment webhook signature verification failed")
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
    }

    ev, err := payments.ParseEvent(body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
    }
    if ev.Type != payments.EventCheckoutCompleted {
        return c.JSON(http.StatusOK, echo.Map{"received": true})
    }

    conf := fulfillment.Confirmation{
        ProviderEventID: ev.ID,
        OrderID:         ev.Data.Object.Metadata["order_id"],
        SessionID:       ev.Data.Object.ID,
    }
    res, err := h.Processor.Process(c.Request().Context(), conf)
    if err != nil {
        h.Log.WithError(err).WithField("provider_event_id", ev.ID).Error("payment confirmation processing failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook handler failed"})
    }

    if res.Outcome == fulfillment.OutcomeFulfilled && h.Publish != nil {
        _ = h.Publish(c.Request().Context(), queue.OrderFulfilledEvent{
            OrderID:          res.Order.ID,
            EventID:          res.Order.EventID,
            UserID:           res.Order.UserID,
            AmountTotalCents: res.Order.AmountTotalCents,
            Currency:         res.Order.Currency,
            TicketIDs:        res.TicketIDs,
            FulfilledAt:      time.Now().UTC().Format(time.RFC3339),
        })
    }

    if res.Outcome == fulfillment.OutcomeDuplicate {
        return c.JSON(http.StatusOK, echo.Map{"received": true, "duplicate": true})
    }
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}
