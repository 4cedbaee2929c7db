package model

import "time"

// Order statuses.  Transitions are monotonic: a pending order may become
// paid exactly once, and abandoned checkouts stay pending forever.
// Refunded exists in the schema for a future extension and is never set
// by this service.
const (
    OrderStatusPending  = "pending"
    OrderStatusPaid     = "paid"
    OrderStatusRefunded = "refunded"
)

// Order groups the items a buyer committed to at checkout.  It is
// created in pending status when the checkout session is created and is
// only ever mutated by the payment confirmation processor.
//
// Fields:
//  ID                – primary key identifier (UUID).
//  EventID           – event the order belongs to.
//  UserID            – buyer who created the checkout session.
//  Status            – one of the OrderStatus constants above.
//  AmountTotalCents  – total charge in minor currency units.
//  Currency          – ISO currency code, copied from the tier.
//  ProviderSessionID – checkout session id at the payment provider.
//  CreatedAt         – creation timestamp.
type Order struct {
    ID                string    // orders.id
    EventID           string    // orders.event_id
    UserID            string    // orders.user_id
    Status            string    // orders.status
    AmountTotalCents  int64     // orders.amount_total_cents
    Currency          string    // orders.currency
    ProviderSessionID *string   // orders.provider_session_id (nullable)
    CreatedAt         time.Time // orders.created_at
}

// OrderItem snapshots one tier purchase inside an order.  UnitPriceCents
// is the price the buyer saw at checkout; fulfillment never re-reads the
// tier price.
type OrderItem struct {
    OrderID        string // order_items.order_id
    TierID         string // order_items.tier_id
    Qty            int    // order_items.qty
    UnitPriceCents int64  // order_items.unit_price_cents
}
