// Package repository implements raw-SQL persistence for the ticketing
// domain.  The sentinel errors defined here let handlers and the
// fulfillment processor distinguish failure scenarios without parsing
// driver errors.  All read-modify-write discipline lives in the SQL
// itself: inventory moves only through guarded conditional UPDATEs and
// once-only facts (idempotency markers, check-ins) are enforced by
// unique constraints, never by check-then-act logic in memory.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrTierNotFound is returned when a ticket tier id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrTierNotFound = errors.New("ticket tier not found")

// ErrOrderNotFound is returned when an order cannot be resolved either
// by id or by provider session id.
var ErrOrderNotFound = errors.New("order not found")

// ErrEventNotPublished is returned when tickets are requested for an
// event that is not in published status.
var ErrEventNotPublished = errors.New("event is not published")

// ErrSalesNotStarted is returned when the tier's sales window has not
// opened yet.
var ErrSalesNotStarted = errors.New("ticket sales have not started")

// ErrSalesEnded is returned when the tier's sales window has closed.
var ErrSalesEnded = errors.New("ticket sales have ended")

// ErrInsufficientInventory is returned when a guarded decrement on
// remaining_qty matches zero rows.  During checkout this is a normal
// user-facing condition; during fulfillment it is escalated to a fatal
// inconsistency by the processor.
var ErrInsufficientInventory = errors.New("not enough tickets remaining")

// ErrTicketNotFound is returned when a ticket does not exist or does not
// belong to an event owned by the calling organizer.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTicketNotIssued is returned when a check-in is attempted on a
// ticket whose status is not 'issued'.
var ErrTicketNotIssued = errors.New("ticket is not issued")

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).  Unique constraints on processed_payment_events and
// checkins are load-bearing; this is how their violations surface.
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}
