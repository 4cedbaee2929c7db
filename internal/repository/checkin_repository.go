package repository

import (
    "context"
    "database/sql"
)

// CheckinRepo provides access to checkins, the at-most-once usage
// record for tickets.  The UNIQUE constraint on ticket_id is what makes
// two scanners racing on the same ticket converge: one insert wins, the
// other observes the duplicate key and reports already-checked-in.
type CheckinRepo struct {
    db *sql.DB
}

// NewCheckinRepo returns a CheckinRepo bound to the given database.
func NewCheckinRepo(db *sql.DB) *CheckinRepo { return &CheckinRepo{db: db} }

// CreateIfAbsent inserts a check-in row for the ticket and reports
// whether this call created it.  A duplicate-key violation is not an
// error: it means another scanner got there first, and the caller
// reports already_checked_in.  Check-in is therefore idempotent and
// commutative under concurrent calls on the same ticket.
func (r *CheckinRepo) CreateIfAbsent(ctx context.Context, ticketID, eventID, checkedInBy string) (bool, error) {
    const q = `INSERT INTO checkins (ticket_id, event_id, checked_in_by) VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, ticketID, eventID, checkedInBy)
    if err != nil {
        if isDuplicateKey(err) {
            return false, nil
        }
        return false, err
    }
    return true, nil
}

// ExistsForTicket reports whether a check-in row exists for the ticket.
// Used by scan classification to distinguish the used verdict from
// valid.
func (r *CheckinRepo) ExistsForTicket(ctx context.Context, ticketID string) (bool, error) {
    const q = `SELECT 1 FROM checkins WHERE ticket_id = ?`
    var one int
    err := r.db.QueryRowContext(ctx, q, ticketID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
