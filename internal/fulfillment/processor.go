// Package fulfillment turns one payment confirmation into a paid order,
// decremented inventory and issued tickets, exactly once.  The dedupe
// marker insert and every fulfillment side effect share a single
// database transaction; partial application (double issuance or lost
// inventory) is the failure mode this package exists to rule out.
package fulfillment

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// ErrFulfillmentInconsistency means a payment was confirmed for more
// inventory than remains on a tier.  The transaction is aborted so no
// partial fulfillment occurs, and the error propagates so the delivery
// fails loudly on every retry until reconciled by hand.  Checkout's
// best-effort availability check makes this rare, but a confirmation
// can arrive after peers over-sold relative to that check.
var ErrFulfillmentInconsistency = errors.New("inventory decrement failed during fulfillment")

// Outcome classifies how a confirmation delivery was absorbed.
type Outcome string

const (
    // OutcomeFulfilled: the order was marked paid and tickets issued.
    OutcomeFulfilled Outcome = "fulfilled"
    // OutcomeDuplicate: this provider event id was seen before; no-op.
    OutcomeDuplicate Outcome = "duplicate"
    // OutcomeOrderNotFound: no order matched; acknowledged with a
    // warning so the provider does not retry forever.
    OutcomeOrderNotFound Outcome = "order_not_found"
    // OutcomeAlreadyPaid: the order was paid by an earlier delivery.
    OutcomeAlreadyPaid Outcome = "already_paid"
)

// Confirmation is one payment-completed event from the provider.
// OrderID comes from session metadata when present; SessionID supports
// the fallback lookup path.
type Confirmation struct {
    ProviderEventID string
    OrderID         string
    SessionID       string
}

// Result reports what a Process call did.
type Result struct {
    Outcome       Outcome
    Order         *model.Order
    TicketsIssued int
    TicketIDs     []string
}

// Processor executes the fulfillment state machine.  It owns no state
// beyond its dependencies; every invocation is an independent unit of
// work and the whole thing is safe to invoke arbitrarily many times for
// the same event id.
type Processor struct {
    db      *sql.DB
    events  *repository.PaymentEventRepo
    orders  *repository.OrderRepo
    tiers   *repository.TierRepo
    tickets *repository.TicketRepo
    log     *logrus.Logger
}

// NewProcessor constructs a Processor.  All dependencies must be
// non-nil.
func NewProcessor(db *sql.DB, events *repository.PaymentEventRepo, orders *repository.OrderRepo, tiers *repository.TierRepo, tickets *repository.TicketRepo, log *logrus.Logger) *Processor {
    if db == nil || events == nil || orders == nil || tiers == nil || tickets == nil || log == nil {
        panic("nil dependency passed to NewProcessor")
    }
    return &Processor{db: db, events: events, orders: orders, tiers: tiers, tickets: tickets, log: log}
}

// Process handles one confirmation delivery inside a single
// transaction:
//
//  1. insert the provider event id (idempotency gate),
//  2. resolve the order by id or session id,
//  3. stop if already paid,
//  4. conditionally flip pending -> paid,
//  5. guarded-decrement remaining_qty per item,
//  6. issue qty tickets per item,
//  7. commit.
//
// Transient errors roll everything back, including the marker from
// step 1, and propagate so the delivery is retried.  Logical dead ends
// (duplicate, order not found, already paid) commit what they must and
// return a nil error so the delivery is acknowledged and never retried.
func (p *Processor) Process(ctx context.Context, conf Confirmation) (Result, error) {
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil {
        return Result{}, fmt.Errorf("begin fulfillment tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    first, err := p.events.InsertTx(ctx, tx, conf.ProviderEventID)
    if err != nil {
        return Result{}, fmt.Errorf("record payment event: %w", err)
    }
    if !first {
        p.log.WithField("provider_event_id", conf.ProviderEventID).Info("duplicate payment confirmation, skipping")
        return Result{Outcome: OutcomeDuplicate}, nil
    }

    order, err := p.resolveOrder(ctx, tx, conf)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            // The session may be stale or belong to a foreign system.
            // Failing would cause infinite redelivery, so keep the
            // marker, acknowledge and surface it in the logs for
            // manual review.
            p.log.WithFields(logrus.Fields{
                "provider_event_id": conf.ProviderEventID,
                "order_id":          conf.OrderID,
                "session_id":        conf.SessionID,
            }).Warn("no order matched payment confirmation")
            if err := tx.Commit(); err != nil {
                return Result{}, fmt.Errorf("commit fulfillment tx: %w", err)
            }
            committed = true
            return Result{Outcome: OutcomeOrderNotFound}, nil
        }
        return Result{}, fmt.Errorf("resolve order: %w", err)
    }

    if order.Status == model.OrderStatusPaid {
        if err := tx.Commit(); err != nil {
            return Result{}, fmt.Errorf("commit fulfillment tx: %w", err)
        }
        committed = true
        return Result{Outcome: OutcomeAlreadyPaid, Order: order}, nil
    }

    rows, err := p.orders.MarkPaidTx(ctx, tx, order.ID)
    if err != nil {
        return Result{}, fmt.Errorf("mark order paid: %w", err)
    }
    if rows == 0 {
        // Raced with another delivery path between the read above and
        // the conditional update.  Treat like already paid.
        if err := tx.Commit(); err != nil {
            return Result{}, fmt.Errorf("commit fulfillment tx: %w", err)
        }
        committed = true
        return Result{Outcome: OutcomeAlreadyPaid, Order: order}, nil
    }

    items, err := p.orders.ItemsTx(ctx, tx, order.ID)
    if err != nil {
        return Result{}, fmt.Errorf("load order items: %w", err)
    }

    var issued []string
    for _, it := range items {
        if err := p.tiers.DecrementRemainingTx(ctx, tx, it.TierID, it.Qty); err != nil {
            if errors.Is(err, repository.ErrInsufficientInventory) {
                p.log.WithFields(logrus.Fields{
                    "order_id": order.ID,
                    "tier_id":  it.TierID,
                    "qty":      it.Qty,
                }).Error("oversold tier detected at confirmation time, aborting fulfillment")
                return Result{}, fmt.Errorf("tier %s qty %d: %w", it.TierID, it.Qty, ErrFulfillmentInconsistency)
            }
            return Result{}, fmt.Errorf("decrement tier %s: %w", it.TierID, err)
        }
        ids, err := p.tickets.IssueBulkTx(ctx, tx, order.ID, order.EventID, order.UserID, it.Qty)
        if err != nil {
            return Result{}, fmt.Errorf("issue tickets for tier %s: %w", it.TierID, err)
        }
        issued = append(issued, ids...)
    }

    if err := tx.Commit(); err != nil {
        return Result{}, fmt.Errorf("commit fulfillment tx: %w", err)
    }
    committed = true

    p.log.WithFields(logrus.Fields{
        "order_id":       order.ID,
        "tickets_issued": len(issued),
    }).Info("order fulfilled")
    return Result{Outcome: OutcomeFulfilled, Order: order, TicketsIssued: len(issued), TicketIDs: issued}, nil
}

// resolveOrder prefers the direct order id from session metadata and
// falls back to the provider session id.
func (p *Processor) resolveOrder(ctx context.Context, tx *sql.Tx, conf Confirmation) (*model.Order, error) {
    if conf.OrderID != "" {
        return p.orders.GetByIDTx(ctx, tx, conf.OrderID)
    }
    if conf.SessionID != "" {
        return p.orders.GetBySessionTx(ctx, tx, conf.SessionID)
    }
    return nil, repository.ErrOrderNotFound
}
