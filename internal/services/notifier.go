// Package services – Dispatcher
//
// This file implements the notification policy for order-lifecycle events.
// Delivery is best-effort: a failed send is wrapped in a NotificationError,
// logged, counted, and handed back to the caller as data. It is never
// retried and never turned into a failure of the triggering operation.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// Audience names the recipient class of a notification.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

// Notifier delivers formatted order messages over the bot transport.
type Notifier interface {
	// SendAdminOrder sends the full order with accept/reject/deliver/call
	// actions to the administrator chat.
	SendAdminOrder(ctx context.Context, adminID int64, o *domain.Order) error
	// SendCustomerStatus tells the ordering user about o.Status.
	SendCustomerStatus(ctx context.Context, o *domain.Order) error
}

// NotificationError records one failed delivery.
type NotificationError struct {
	Audience Audience
	ChatID   int64
	OrderID  uint
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s %d (order %d): %v", e.Audience, e.ChatID, e.OrderID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Dispatcher applies the delivery policy on top of a Notifier.
type Dispatcher struct {
	Notifier Notifier
	AdminID  int64
}

// AdminNewOrder notifies the administrator of a freshly placed order.
// It returns nil on success.
func (d *Dispatcher) AdminNewOrder(ctx context.Context, o *domain.Order) *NotificationError {
	if d == nil || d.Notifier == nil {
		return nil
	}
	var err error
	if d.AdminID == 0 {
		err = ErrNoAdmin
	} else {
		err = d.Notifier.SendAdminOrder(ctx, d.AdminID, o)
	}
	return d.record(ctx, AudienceAdmin, d.AdminID, o, err)
}

// CustomerStatus notifies the order owner about a status change.
// It returns nil on success.
func (d *Dispatcher) CustomerStatus(ctx context.Context, o *domain.Order) *NotificationError {
	if d == nil || d.Notifier == nil {
		return nil
	}
	err := d.Notifier.SendCustomerStatus(ctx, o)
	return d.record(ctx, AudienceCustomer, o.UserID, o, err)
}

func (d *Dispatcher) record(ctx context.Context, aud Audience, chatID int64, o *domain.Order, err error) *NotificationError {
	if err == nil {
		notificationsTotal.WithLabelValues(string(aud), "ok").Inc()
		return nil
	}
	notificationsTotal.WithLabelValues(string(aud), "failed").Inc()
	nerr := &NotificationError{Audience: aud, ChatID: chatID, OrderID: o.ID, Err: err}

	lg := zerolog.Ctx(ctx)
	ev := lg.Warn()
	if aud == AudienceAdmin {
		ev = lg.Error()
	}
	ev.Err(err).
		Str("audience", string(aud)).
		Int64("chat_id", chatID).
		Uint("order_id", o.ID).
		Str("order_code", o.OrderCode).
		Msg("notification failed")
	return nerr
}
