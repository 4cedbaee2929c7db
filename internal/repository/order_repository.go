package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// OrderRepo provides persistence for orders and their line items.
// Orders are created pending at checkout-session creation and reach
// paid at most once, enforced by the conditional update in MarkPaidTx
// rather than by the caller reading the status first.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new pending order within an existing transaction.
// The caller supplies the id (UUID) and is responsible for commit or
// rollback.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (id, event_id, user_id, status, amount_total_cents, currency)
        VALUES (?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q, o.ID, o.EventID, o.UserID, o.Status, o.AmountTotalCents, o.Currency)
    return err
}

// CreateItemsTx inserts the order's line items in one statement.  Each
// item snapshots the unit price the buyer saw; fulfillment never
// re-reads the tier price.  Passing an empty slice has no effect.
func (r *OrderRepo) CreateItemsTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO order_items (order_id, tier_id, qty, unit_price_cents) VALUES `
    args := make([]interface{}, 0, len(items)*4)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, it.OrderID, it.TierID, it.Qty, it.UnitPriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// SetProviderSession records the payment provider's checkout session id
// on an order.  This runs outside any transaction, after the provider
// call returns, so no transaction is ever held open across the network.
func (r *OrderRepo) SetProviderSession(ctx context.Context, orderID, sessionID string) error {
    const q = `UPDATE orders SET provider_session_id = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, sessionID, orderID)
    return err
}

// GetByIDTx resolves an order by primary key within a transaction.
// Returns ErrOrderNotFound when no row exists.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Order, error) {
    const q = `SELECT id, event_id, user_id, status, amount_total_cents, currency, provider_session_id, created_at
        FROM orders WHERE id = ?`
    return scanOrder(tx.QueryRowContext(ctx, q, orderID))
}

// GetBySessionTx resolves an order by the payment provider's checkout
// session id within a transaction.  Returns ErrOrderNotFound when no
// row exists.
func (r *OrderRepo) GetBySessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (*model.Order, error) {
    const q = `SELECT id, event_id, user_id, status, amount_total_cents, currency, provider_session_id, created_at
        FROM orders WHERE provider_session_id = ?`
    return scanOrder(tx.QueryRowContext(ctx, q, sessionID))
}

func scanOrder(row *sql.Row) (*model.Order, error) {
    var o model.Order
    var sessionID sql.NullString
    err := row.Scan(&o.ID, &o.EventID, &o.UserID, &o.Status, &o.AmountTotalCents, &o.Currency, &sessionID, &o.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrOrderNotFound
    }
    if err != nil {
        return nil, err
    }
    if sessionID.Valid {
        sid := sessionID.String
        o.ProviderSessionID = &sid
    }
    return &o, nil
}

// MarkPaidTx transitions an order to paid, guarded by the current
// status still being pending.  It returns the number of rows affected;
// zero means another delivery path already paid the order and the
// caller should treat the confirmation as absorbed.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
    const q = `UPDATE orders SET status = 'paid' WHERE id = ? AND status = 'pending'`
    res, err := tx.ExecContext(ctx, q, orderID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ItemsTx returns the line items of an order within a transaction.
func (r *OrderRepo) ItemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]model.OrderItem, error) {
    const q = `SELECT order_id, tier_id, qty, unit_price_cents FROM order_items WHERE order_id = ?`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var items []model.OrderItem
    for rows.Next() {
        var it model.OrderItem
        if err := rows.Scan(&it.OrderID, &it.TierID, &it.Qty, &it.UnitPriceCents); err != nil {
            return nil, err
        }
        items = append(items, it)
    }
    return items, rows.Err()
}

// BuyerOrder is the order summary returned for a buyer's own listing.
type BuyerOrder struct {
    ID               string    `json:"id"`
    EventID          string    `json:"event_id"`
    Status           string    `json:"status"`
    AmountTotalCents int64     `json:"amount_total_cents"`
    Currency         string    `json:"currency"`
    CreatedAt        time.Time `json:"created_at"`
}

// ListByBuyer returns the most recent orders of a buyer, newest first.
func (r *OrderRepo) ListByBuyer(ctx context.Context, userID string) ([]BuyerOrder, error) {
    const q = `SELECT id, event_id, status, amount_total_cents, currency, created_at
        FROM orders WHERE user_id = ? ORDER BY created_at DESC LIMIT 100`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    orders := make([]BuyerOrder, 0)
    for rows.Next() {
        var o BuyerOrder
        if err := rows.Scan(&o.ID, &o.EventID, &o.Status, &o.AmountTotalCents, &o.Currency, &o.CreatedAt); err != nil {
            return nil, err
        }
        orders = append(orders, o)
    }
    return orders, rows.Err()
}
