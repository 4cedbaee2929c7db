package model

import "time"

// ProcessedPaymentEvent is the durable idempotency marker for payment
// confirmation deliveries.  The provider delivers confirmations at least
// once; inserting the same provider event id twice fails on the primary
// key, and that failure is the signal to skip all further processing.
type ProcessedPaymentEvent struct {
    ProviderEventID string    // processed_payment_events.provider_event_id
    ReceivedAt      time.Time // processed_payment_events.received_at
}
