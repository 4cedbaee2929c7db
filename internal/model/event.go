package model

import "time"

// Event is the slice of an event that ticket fulfillment needs to see.
// Event CRUD itself lives in a collaborating service; this service only
// reads events to enforce the published check and organizer scoping.
//
// Fields:
//  ID          – primary key identifier (UUID).
//  OrganizerID – user who owns the event; check-in is scoped to it.
//  Title       – display title, forwarded to the payment provider.
//  Status      – lifecycle status ('draft', 'published').
//  StartsAt    – when the event begins.
type Event struct {
    ID          string    // events.id
    OrganizerID string    // events.organizer_id
    Title       string    // events.title
    Status      string    // events.status
    StartsAt    time.Time // events.starts_at
}

// EventStatusPublished is the only status in which tickets may be sold
// or scanned.
const EventStatusPublished = "published"
