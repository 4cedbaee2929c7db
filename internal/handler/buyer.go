package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticketing/internal/qr"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// BuyerHandler serves a buyer's own orders and tickets.  QR payloads
// are minted fresh on every ticket read; nothing signed is ever stored.
type BuyerHandler struct {
    Orders  *repository.OrderRepo
    Tickets *repository.TicketRepo
    Codec   *qr.Codec
    Log     *logrus.Logger
}

// NewBuyerHandler constructs a BuyerHandler.  All dependencies must be
// non-nil.
func NewBuyerHandler(orders *repository.OrderRepo, tickets *repository.TicketRepo, codec *qr.Codec, log *logrus.Logger) *BuyerHandler {
    if orders == nil || tickets == nil || codec == nil || log == nil {
        panic("nil dependency passed to NewBuyerHandler")
    }
    return &BuyerHandler{Orders: orders, Tickets: tickets, Codec: codec, Log: log}
}

// MyOrders handles GET /v1/me/orders, newest first.
func (h *BuyerHandler) MyOrders(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.Orders.ListByBuyer(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// MyTickets handles GET /v1/me/tickets.  Each ticket carries a freshly
// minted QR payload bound to the ticket and event ids.
func (h *BuyerHandler) MyTickets(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    tickets, err := h.Tickets.ListByBuyer(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    for i := range tickets {
        payload, err := h.Codec.Issue(tickets[i].ID, tickets[i].EventID)
        if err != nil {
            h.Log.WithError(err).WithField("ticket_id", tickets[i].ID).Error("QR mint failed")
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mint QR"})
        }
        tickets[i].QRPayload = payload
    }
    return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}
