package model

import "time"

// Checkin records that a ticket has been used at the door.  Existence of
// a row is the sole source of truth for "already used"; the UNIQUE
// constraint on TicketID is what makes concurrent scans safe, not
// application logic.
//
// Fields:
//  TicketID    – ticket that was checked in (unique).
//  EventID     – event the check-in happened at.
//  CheckedInBy – organizer user who performed the scan.
//  CreatedAt   – check-in timestamp.
type Checkin struct {
    TicketID    string    // checkins.ticket_id
    EventID     string    // checkins.event_id
    CheckedInBy string    // checkins.checked_in_by
    CreatedAt   time.Time // checkins.created_at
}
