package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/qr"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// Scan verdicts.  The scanner client renders exactly these four states;
// an organizer at the door never sees an error page.
const (
    VerdictInvalid = "invalid"
    VerdictVoided  = "voided"
    VerdictUsed    = "used"
    VerdictValid   = "valid"
)

// ScanHandler classifies scanned QR tokens and performs check-ins on
// behalf of organizers.  Both operations are scoped to events the
// calling organizer owns; a ticket belonging to someone else's event is
// indistinguishable from a forged token, so existence never leaks.
type ScanHandler struct {
    Codec    *qr.Codec
    Tickets  *repository.TicketRepo
    Checkins *repository.CheckinRepo
}

// NewScanHandler constructs a ScanHandler.  All dependencies must be
// non-nil.
func NewScanHandler(codec *qr.Codec, tickets *repository.TicketRepo, checkins *repository.CheckinRepo) *ScanHandler {
    if codec == nil || tickets == nil || checkins == nil {
        panic("nil dependency passed to NewScanHandler")
    }
    return &ScanHandler{Codec: codec, Tickets: tickets, Checkins: checkins}
}

// Validate handles POST /v1/tickets/validate.  The body carries the raw
// QR payload; the response is always 200 with one of the four verdicts.
func (h *ScanHandler) Validate(c echo.Context) error {
    organizerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        QRPayload string `json:"qr_payload"`
    }
    if err := c.Bind(&body); err != nil || body.QRPayload == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_payload is required"})
    }

    ticketID, eventID, err := h.Codec.Verify(body.QRPayload)
    if err != nil {
        return c.JSON(http.StatusOK, echo.Map{"status": VerdictInvalid})
    }

    ctx := c.Request().Context()
    ticket, err := h.Tickets.GetForScan(ctx, ticketID, eventID, organizerID)
    if err != nil {
        if err == repository.ErrTicketNotFound {
            return c.JSON(http.StatusOK, echo.Map{"status": VerdictInvalid})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if ticket.Status != model.TicketStatusIssued {
        return c.JSON(http.StatusOK, echo.Map{
            "status":    VerdictVoided,
            "ticket_id": ticketID,
            "event_id":  eventID,
        })
    }

    used, err := h.Checkins.ExistsForTicket(ctx, ticketID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    verdict := VerdictValid
    if used {
        verdict = VerdictUsed
    }
    return c.JSON(http.StatusOK, echo.Map{
        "status":         verdict,
        "ticket_id":      ticketID,
        "event_id":       eventID,
        "attendee_email": ticket.AttendeeEmail,
    })
}

// Checkin handles POST /v1/tickets/:id/checkin.  It inserts the
// check-in row if absent; when two scanners race on the same ticket,
// exactly one gets checked_in and the other already_checked_in.
func (h *ScanHandler) Checkin(c echo.Context) error {
    organizerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ticketID := c.Param("id")
    if ticketID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }

    ctx := c.Request().Context()
    ticket, err := h.Tickets.GetForCheckin(ctx, ticketID, organizerID)
    if err != nil {
        if err == repository.ErrTicketNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if ticket.Status != model.TicketStatusIssued {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket is not issued"})
    }

    created, err := h.Checkins.CreateIfAbsent(ctx, ticket.ID, ticket.EventID, organizerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if !created {
        return c.JSON(http.StatusOK, echo.Map{"status": "already_checked_in"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "checked_in"})
}
