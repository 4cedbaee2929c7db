package model

import "time"

// Ticket statuses.  Tickets are created in issued status during payment
// fulfillment and may later be voided by organizer action.
const (
    TicketStatusIssued = "issued"
    TicketStatusVoided = "voided"
)

// Ticket is one unit of admission.  Fulfillment creates one row per unit
// of quantity purchased; tickets are fungible within a tier, so there is
// no seat assignment.  The QR payload is never stored here; it is
// minted from ID and EventID on every read.
//
// Fields:
//  ID        – primary key identifier (UUID).
//  OrderID   – order this ticket was issued from.
//  EventID   – event the ticket admits to.
//  UserID    – attendee (the buyer of the order).
//  Status    – one of the TicketStatus constants above.
//  CreatedAt – issuance timestamp.
type Ticket struct {
    ID        string    // tickets.id
    OrderID   string    // tickets.order_id
    EventID   string    // tickets.event_id
    UserID    string    // tickets.user_id
    Status    string    // tickets.status
    CreatedAt time.Time // tickets.created_at
}
