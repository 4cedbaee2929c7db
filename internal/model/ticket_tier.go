package model

import "time"

// TicketTier is a sellable class of tickets for an event with its own
// price and inventory.  RemainingQty is the inventory ledger: it starts
// equal to TotalQty and is only ever moved by the guarded decrement in
// the fulfillment transaction, never by checkout-session creation.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  EventID      – event this tier belongs to.
//  Name         – tier display name (e.g. "General Admission").
//  PriceCents   – price in minor currency units.
//  Currency     – ISO currency code.
//  TotalQty     – total units ever offered.
//  RemainingQty – units still unsold; 0 <= RemainingQty <= TotalQty.
//  SalesStart   – when sales open.
//  SalesEnd     – optional close of sales; nil means open-ended.
type TicketTier struct {
    ID           string     // ticket_tiers.id
    EventID      string     // ticket_tiers.event_id
    Name         string     // ticket_tiers.name
    PriceCents   int64      // ticket_tiers.price_cents
    Currency     string     // ticket_tiers.currency
    TotalQty     int        // ticket_tiers.total_qty
    RemainingQty int        // ticket_tiers.remaining_qty
    SalesStart   time.Time  // ticket_tiers.sales_start
    SalesEnd     *time.Time // ticket_tiers.sales_end (nullable)
}
