// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// OrderFulfilledEvent is published after a fulfillment transaction
// commits.  It carries enough for downstream consumers (email delivery,
// analytics) to act without querying the primary database.  Publishing
// happens strictly after commit and is best effort; fulfillment
// correctness never depends on the broker.
type OrderFulfilledEvent struct {
    OrderID          string   `json:"order_id"`
    EventID          string   `json:"event_id"`
    UserID           string   `json:"user_id"`
    AmountTotalCents int64    `json:"amount_total_cents"`
    Currency         string   `json:"currency"`
    TicketIDs        []string `json:"ticket_ids"`
    FulfilledAt      string   `json:"fulfilled_at"`
}
