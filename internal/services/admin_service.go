// Package services – AdminService
//
// This file implements the administrator's use-cases: the pending-order
// review queue, status changes, customer contact lookup, recent-order
// listing, bulk clear, and aggregate stats. Every method checks the caller
// against the configured administrator id before touching the store.
//
// The review queue is kept in the administrator's own session. Once an
// order is rejected or delivered the next queued order that is still open is
// returned so the bot can show it straight away. An accepted order is not
// finished yet, so the queue only advances on request.
package services

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/session"
)

// AdminService exposes admin-only order management.
type AdminService struct {
	Orders   OrderStore
	Sessions *session.Store
	Notify   *Dispatcher
	AdminID  int64

	// QueueSize caps how many pending orders one review pass loads. Defaults to 10.
	QueueSize int
	// RecentLimit caps the /orders listing. Defaults to 10.
	RecentLimit int
}

// StatusChange describes an applied status transition.
type StatusChange struct {
	Order    *domain.Order
	Previous domain.OrderStatus

	// Next is the next open order from the review queue. It is only set
	// when Order reached a terminal status.
	Next *domain.Order
	// Remaining is how many queued orders are left after Next, or after
	// Order when Next is not set.
	Remaining int
	// Failed is set when the customer could not be notified.
	Failed *NotificationError
}

// IsAdmin reports whether callerID is the administrator.
func (s *AdminService) IsAdmin(callerID int64) bool { return isAdmin(s.AdminID, callerID) }

// StartReview loads up to QueueSize open orders, pending ones first and then
// accepted ones awaiting delivery, each group oldest first. It returns the
// first and queues the rest in the administrator's session.
func (s *AdminService) StartReview(ctx context.Context, callerID int64) (*domain.Order, int, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "StartReview")
	defer span.End()

	if !s.IsAdmin(callerID) {
		return nil, 0, ErrForbidden
	}
	size := s.QueueSize
	if size <= 0 {
		size = 10
	}
	open, err := s.Orders.ListOrders(ctx, domain.OrderFilter{Status: domain.StatusPending, OldestFirst: true}, size)
	if err != nil {
		return nil, 0, err
	}
	pending := len(open)
	if left := size - len(open); left > 0 {
		accepted, err := s.Orders.ListOrders(ctx, domain.OrderFilter{Status: domain.StatusAccepted, OldestFirst: true}, left)
		if err != nil {
			return nil, 0, err
		}
		open = append(open, accepted...)
	}
	if len(open) == 0 {
		s.setQueue(callerID, nil)
		return nil, 0, ErrNoPendingOrder
	}
	rest := make([]uint, 0, len(open)-1)
	for _, o := range open[1:] {
		rest = append(rest, o.ID)
	}
	s.setQueue(callerID, rest)

	span.SetAttributes(attribute.Int("pending", pending), attribute.Int("accepted", len(open)-pending))
	first := open[0]
	return &first, len(rest), nil
}

// NextInReview pops the next queued order that is still open. It returns
// ErrNoPendingOrder once the queue is exhausted.
func (s *AdminService) NextInReview(ctx context.Context, callerID int64) (*domain.Order, int, error) {
	if !s.IsAdmin(callerID) {
		return nil, 0, ErrForbidden
	}
	next, remaining, err := s.nextQueued(ctx, callerID, 0)
	if err != nil {
		return nil, 0, err
	}
	if next == nil {
		return nil, 0, ErrNoPendingOrder
	}
	return next, remaining, nil
}

// ChangeStatus moves order orderID to status to. Only the administrator may
// call it, and only transitions allowed by OrderStatus.CanTransition apply.
// The customer is notified best-effort; a failed notification is reported in
// StatusChange.Failed and does not undo the change.
func (s *AdminService) ChangeStatus(ctx context.Context, callerID int64, orderID uint, to domain.OrderStatus) (*StatusChange, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "ChangeStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", int64(orderID)),
			attribute.String("order.status", string(to)),
		),
	)
	defer span.End()

	if !s.IsAdmin(callerID) {
		zerolog.Ctx(ctx).Warn().Int64("caller_id", callerID).Uint("order_id", orderID).Msg("status change denied")
		return nil, ErrForbidden
	}
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	prev := o.Status
	if !prev.CanTransition(to) {
		return nil, ErrInvalidTransition
	}
	if err := s.Orders.UpdateOrderStatus(ctx, orderID, prev, to); err != nil {
		if isNotFound(err) {
			// Someone else moved it first.
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	o.Status = to
	statusChanges.WithLabelValues(string(to)).Inc()

	zerolog.Ctx(ctx).Info().
		Uint("order_id", o.ID).
		Str("order_code", o.OrderCode).
		Str("from", string(prev)).
		Str("to", string(to)).
		Msg("order status changed")

	ch := &StatusChange{Order: o, Previous: prev}
	ch.Failed = s.Notify.CustomerStatus(ctx, o)

	// An accepted order stays on screen until it is delivered.
	if !to.Terminal() {
		ch.Remaining = s.queued(callerID)
		return ch, nil
	}
	next, remaining, err := s.nextQueued(ctx, callerID, orderID)
	if err != nil {
		// The change itself succeeded; the queue is a convenience.
		zerolog.Ctx(ctx).Warn().Err(err).Msg("review queue lookup failed")
	}
	ch.Next, ch.Remaining = next, remaining
	return ch, nil
}

// queued reports how many ids are left in the review queue.
func (s *AdminService) queued(adminID int64) int {
	sess, ok := s.Sessions.Get(adminID)
	if !ok {
		return 0
	}
	return len(sess.PendingQueue)
}

// nextQueued pops queued ids until one is still open. Orders that were
// finished elsewhere meanwhile are skipped.
func (s *AdminService) nextQueued(ctx context.Context, adminID int64, justHandled uint) (*domain.Order, int, error) {
	sess, ok := s.Sessions.Get(adminID)
	if !ok || len(sess.PendingQueue) == 0 {
		return nil, 0, nil
	}
	queue := sess.PendingQueue
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == justHandled {
			continue
		}
		o, err := s.Orders.GetOrder(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			s.setQueue(adminID, append([]uint{id}, queue...))
			return nil, 0, err
		}
		if o.Status.Terminal() {
			continue
		}
		s.setQueue(adminID, queue)
		return o, len(queue), nil
	}
	s.setQueue(adminID, nil)
	return nil, 0, nil
}

func (s *AdminService) setQueue(adminID int64, ids []uint) {
	after := s.Sessions.Update(adminID, func(ss *session.Session) bool {
		ss.PendingQueue = ids
		return true
	})
	if len(after.PendingQueue) == 0 && !after.Active() {
		s.Sessions.Clear(adminID)
	}
}

// CustomerContact returns the order with the customer's name and phone.
func (s *AdminService) CustomerContact(ctx context.Context, callerID int64, orderID uint) (*domain.Order, error) {
	if !s.IsAdmin(callerID) {
		return nil, ErrForbidden
	}
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// RecentOrders lists the most recent orders across all customers.
func (s *AdminService) RecentOrders(ctx context.Context, callerID int64) ([]domain.Order, error) {
	if !s.IsAdmin(callerID) {
		return nil, ErrForbidden
	}
	limit := s.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	return s.Orders.ListOrders(ctx, domain.OrderFilter{}, limit)
}

// ClearOrders deletes every order and drops the review queue.
func (s *AdminService) ClearOrders(ctx context.Context, callerID int64) (int64, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "ClearOrders")
	defer span.End()

	if !s.IsAdmin(callerID) {
		return 0, ErrForbidden
	}
	n, err := s.Orders.DeleteAllOrders(ctx)
	if err != nil {
		return 0, err
	}
	s.setQueue(callerID, nil)
	zerolog.Ctx(ctx).Warn().Int64("deleted", n).Msg("all orders cleared")
	return n, nil
}

// Stats returns aggregate counts. Admin only; the ops HTTP server reads the
// store directly.
func (s *AdminService) Stats(ctx context.Context, callerID int64) (domain.Stats, error) {
	if !s.IsAdmin(callerID) {
		return domain.Stats{}, ErrForbidden
	}
	return s.Orders.AggregateStats(ctx)
}
