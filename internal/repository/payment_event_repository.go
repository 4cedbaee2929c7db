package repository

import (
    "context"
    "database/sql"
)

// PaymentEventRepo provides access to processed_payment_events, the
// durable idempotency ledger for payment confirmations.  The primary
// key on provider_event_id is the dedupe gate against at-least-once
// redelivery.
type PaymentEventRepo struct {
    db *sql.DB
}

// NewPaymentEventRepo returns a PaymentEventRepo bound to the given
// database.
func NewPaymentEventRepo(db *sql.DB) *PaymentEventRepo { return &PaymentEventRepo{db: db} }

// InsertTx records a provider event id inside the fulfillment
// transaction and reports whether this delivery is the first.  A
// duplicate key means the event was already processed (or is being
// processed concurrently) and the caller must skip all further work.
// Because the insert shares the transaction with the fulfillment side
// effects, a rollback after a transient failure also removes the
// marker, so a legitimate retry is not mistaken for a duplicate.
func (r *PaymentEventRepo) InsertTx(ctx context.Context, tx *sql.Tx, providerEventID string) (bool, error) {
    const q = `INSERT INTO processed_payment_events (provider_event_id) VALUES (?)`
    _, err := tx.ExecContext(ctx, q, providerEventID)
    if err != nil {
        if isDuplicateKey(err) {
            return false, nil
        }
        return false, err
    }
    return true, nil
}
