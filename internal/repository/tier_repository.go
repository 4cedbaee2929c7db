package repository

import (
    "context"
    "database/sql"
    "time"
)

// TierRepo provides access to ticket_tiers, the per-tier inventory
// ledger.  remaining_qty is never read into memory and written back;
// every mutation is a single conditional UPDATE so that concurrent
// fulfillment transactions racing on the same tier converge safely.
type TierRepo struct {
    db *sql.DB
}

// NewTierRepo returns a TierRepo bound to the given database.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *TierRepo) DB() *sql.DB { return r.db }

// TierForCheckout carries the tier row joined with the slice of its
// event that checkout validation needs: published status, title for the
// provider line item and organizer scoping.
type TierForCheckout struct {
    TierID       string
    TierName     string
    PriceCents   int64
    Currency     string
    RemainingQty int
    SalesStart   time.Time
    SalesEnd     *time.Time
    EventID      string
    EventTitle   string
    EventStatus  string
}

// GetForCheckout loads a tier together with its event for checkout
// validation.  It returns ErrTierNotFound when the id does not exist.
// The remaining_qty it reports is a best-effort snapshot: checkout only
// checks availability, it never reserves inventory.
func (r *TierRepo) GetForCheckout(ctx context.Context, tierID string) (*TierForCheckout, error) {
    const q = `SELECT tt.id, tt.name, tt.price_cents, tt.currency, tt.remaining_qty,
        tt.sales_start, tt.sales_end, e.id, e.title, e.status
        FROM ticket_tiers tt
        JOIN events e ON e.id = tt.event_id
        WHERE tt.id = ?`
    var t TierForCheckout
    var salesEnd sql.NullTime
    err := r.db.QueryRowContext(ctx, q, tierID).Scan(
        &t.TierID, &t.TierName, &t.PriceCents, &t.Currency, &t.RemainingQty,
        &t.SalesStart, &salesEnd, &t.EventID, &t.EventTitle, &t.EventStatus,
    )
    if err == sql.ErrNoRows {
        return nil, ErrTierNotFound
    }
    if err != nil {
        return nil, err
    }
    if salesEnd.Valid {
        end := salesEnd.Time
        t.SalesEnd = &end
    }
    return &t, nil
}

// DecrementRemainingTx performs the guarded inventory decrement inside
// an existing transaction:
//
//	UPDATE ... SET remaining_qty = remaining_qty - qty
//	WHERE id = ? AND remaining_qty >= qty
//
// A compare-and-decrement, not a read-then-write.  If the guard matches
// zero rows the decrement would have oversold the tier; the caller must
// abort the whole transaction.  ErrInsufficientInventory is returned in
// that case.
func (r *TierRepo) DecrementRemainingTx(ctx context.Context, tx *sql.Tx, tierID string, qty int) error {
    const q = `UPDATE ticket_tiers SET remaining_qty = remaining_qty - ?
        WHERE id = ? AND remaining_qty >= ?`
    res, err := tx.ExecContext(ctx, q, qty, tierID, qty)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInsufficientInventory
    }
    return nil
}

// PublicTier is the sanitized availability view exposed on the public
// browse endpoint.
type PublicTier struct {
    ID           string     `json:"id"`
    Name         string     `json:"name"`
    PriceCents   int64      `json:"price_cents"`
    Currency     string     `json:"currency"`
    RemainingQty int        `json:"remaining_qty"`
    SalesStart   time.Time  `json:"sales_start"`
    SalesEnd     *time.Time `json:"sales_end,omitempty"`
}

// ListPublished returns the tiers of a published event for public
// browsing.  It returns ErrEventNotPublished when the event does not
// exist or is not published; the two cases are deliberately not
// distinguished so draft events do not leak.
func (r *TierRepo) ListPublished(ctx context.Context, eventID string) ([]PublicTier, error) {
    const check = `SELECT status FROM events WHERE id = ?`
    var status string
    err := r.db.QueryRowContext(ctx, check, eventID).Scan(&status)
    if err == sql.ErrNoRows {
        return nil, ErrEventNotPublished
    }
    if err != nil {
        return nil, err
    }
    if status != "published" {
        return nil, ErrEventNotPublished
    }

    const q = `SELECT id, name, price_cents, currency, remaining_qty, sales_start, sales_end
        FROM ticket_tiers WHERE event_id = ? ORDER BY price_cents ASC, name ASC`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    tiers := make([]PublicTier, 0)
    for rows.Next() {
        var t PublicTier
        var salesEnd sql.NullTime
        if err := rows.Scan(&t.ID, &t.Name, &t.PriceCents, &t.Currency, &t.RemainingQty, &t.SalesStart, &salesEnd); err != nil {
            return nil, err
        }
        if salesEnd.Valid {
            end := salesEnd.Time
            t.SalesEnd = &end
        }
        tiers = append(tiers, t)
    }
    return tiers, rows.Err()
}
