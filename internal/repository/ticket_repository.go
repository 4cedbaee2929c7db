package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides persistence for issued tickets.  Tickets are only
// ever created inside the fulfillment transaction; reads serve the
// buyer's wallet and the organizer's door scanner.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// IssueBulkTx inserts qty ticket rows in issued status for one order
// item, all bound to the order's event and buyer.  IDs are generated
// here so the caller gets them back for logging or publishing.
func (r *TicketRepo) IssueBulkTx(ctx context.Context, tx *sql.Tx, orderID, eventID, userID string, qty int) ([]string, error) {
    if qty <= 0 {
        return nil, nil
    }
    ids := make([]string, 0, qty)
    query := `INSERT INTO tickets (id, order_id, event_id, user_id, status) VALUES `
    args := make([]interface{}, 0, qty*5)
    for i := 0; i < qty; i++ {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        id := uuid.NewString()
        ids = append(ids, id)
        args = append(args, id, orderID, eventID, userID, model.TicketStatusIssued)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, err
    }
    return ids, nil
}

// ScanTicket is a ticket row joined with the attendee contact, loaded
// for scan classification.  The query is already scoped to the calling
// organizer's events, so a miss means "invalid", never "forbidden".
type ScanTicket struct {
    ID            string
    EventID       string
    Status        string
    AttendeeEmail string
}

// GetForScan loads a ticket for verdict classification.  The ticket
// must match both the event id decoded from the QR token and an event
// owned by organizerID; otherwise ErrTicketNotFound is returned and the
// scanner sees an invalid verdict without learning whether the ticket
// exists.
func (r *TicketRepo) GetForScan(ctx context.Context, ticketID, eventID, organizerID string) (*ScanTicket, error) {
    const q = `SELECT t.id, t.event_id, t.status, u.email
        FROM tickets t
        JOIN events e ON e.id = t.event_id
        JOIN users u ON u.id = t.user_id
        WHERE t.id = ? AND e.id = ? AND e.organizer_id = ?`
    var st ScanTicket
    err := r.db.QueryRowContext(ctx, q, ticketID, eventID, organizerID).Scan(&st.ID, &st.EventID, &st.Status, &st.AttendeeEmail)
    if err == sql.ErrNoRows {
        return nil, ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return &st, nil
}

// GetForCheckin loads a ticket for the check-in operation, scoped to
// the calling organizer.  Returns ErrTicketNotFound when the ticket
// does not exist or belongs to another organizer's event.
func (r *TicketRepo) GetForCheckin(ctx context.Context, ticketID, organizerID string) (*model.Ticket, error) {
    const q = `SELECT t.id, t.order_id, t.event_id, t.user_id, t.status, t.created_at
        FROM tickets t
        JOIN events e ON e.id = t.event_id
        WHERE t.id = ? AND e.organizer_id = ?`
    var t model.Ticket
    err := r.db.QueryRowContext(ctx, q, ticketID, organizerID).Scan(&t.ID, &t.OrderID, &t.EventID, &t.UserID, &t.Status, &t.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// BuyerTicket is a ticket joined with its event for the buyer's wallet
// listing.  QRPayload is filled in by the handler, minted fresh on
// every read.
type BuyerTicket struct {
    ID          string    `json:"id"`
    Status      string    `json:"status"`
    EventID     string    `json:"event_id"`
    EventTitle  string    `json:"event_title"`
    StartsAt    time.Time `json:"starts_at"`
    OrderStatus string    `json:"order_status"`
    QRPayload   string    `json:"qr_payload,omitempty"`
}

// ListByBuyer returns a buyer's tickets with event details, soonest
// event first.
func (r *TicketRepo) ListByBuyer(ctx context.Context, userID string) ([]BuyerTicket, error) {
    const q = `SELECT t.id, t.status, e.id, e.title, e.starts_at, o.status
        FROM tickets t
        JOIN orders o ON o.id = t.order_id
        JOIN events e ON e.id = t.event_id
        WHERE t.user_id = ?
        ORDER BY e.starts_at ASC, t.created_at ASC
        LIMIT 200`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    tickets := make([]BuyerTicket, 0)
    for rows.Next() {
        var t BuyerTicket
        if err := rows.Scan(&t.ID, &t.Status, &t.EventID, &t.EventTitle, &t.StartsAt, &t.OrderStatus); err != nil {
            return nil, err
        }
        tickets = append(tickets, t)
    }
    return tickets, rows.Err()
}
