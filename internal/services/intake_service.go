// Package services – IntakeService
//
// This file implements the order-intake workflow: a linear form that takes a
// user from "picked an item and a quantity" to a persisted pending order.
//
//	none → phone → name → dorm → block → room → confirming → done
//
// Users with a saved phone skip straight to confirming. Every step works on
// a copy of the session and only writes it back once the step succeeded, so
// a store failure leaves the user on the same question.
//
// The service never formats text. It returns a Reply naming what to ask
// next and the bot layer renders it.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/session"
)

// Prompt tells the transport what to show next.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptPhone
	PromptName
	PromptDorm
	PromptBlock
	PromptRoom
	PromptConfirm
	PromptPlaced
	PromptCancelled
	PromptQuickOrderHelp
)

var promptForStep = map[session.Step]Prompt{
	session.StepPhone:      PromptPhone,
	session.StepName:       PromptName,
	session.StepDorm:       PromptDorm,
	session.StepBlock:      PromptBlock,
	session.StepRoom:       PromptRoom,
	session.StepConfirming: PromptConfirm,
}

// Reply is the result of one intake step.
type Reply struct {
	Prompt Prompt
	// Invalid is set when the answer was rejected and Prompt repeats the
	// same question.
	Invalid bool
	// Field names the rejected quick-order line.
	Field string

	// Session is the state after the step.
	Session session.Session
	// Order is set once an order was placed.
	Order *domain.Order
	// Failed is set when the admin could not be notified of Order.
	Failed *NotificationError
}

// IntakeService drives the per-user order form.
type IntakeService struct {
	Users    UserStore
	Orders   OrderStore
	Catalog  *CatalogService
	Sessions *session.Store
	Notify   *Dispatcher

	// NewCode generates order codes. Defaults to NewOrderCode.
	NewCode func() string
	// CodeRetries is how many codes are tried before giving up. Defaults to 5.
	CodeRetries int
	// MaxQuantity bounds a single order line. Defaults to 20.
	MaxQuantity int
}

func (s *IntakeService) maxQty() int {
	if s.MaxQuantity > 0 {
		return s.MaxQuantity
	}
	return 20
}

// SelectItem starts (or restarts) an intake flow for itemID × qty. The item
// and the user's stored profile are read before the session is touched, so a
// stale id leaves any existing session as it was.
func (s *IntakeService) SelectItem(ctx context.Context, userID int64, username string, itemID uint, qty int) (Reply, error) {
	ctx, span := otel.Tracer("services/IntakeService").Start(ctx, "SelectItem",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("item.id", int64(itemID)),
			attribute.Int("quantity", qty),
		),
	)
	defer span.End()

	if qty < 1 || qty > s.maxQty() {
		return Reply{}, ErrInvalidQuantity
	}
	item, err := s.Catalog.Item(ctx, itemID)
	if err != nil {
		return Reply{}, err
	}
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil && !isNotFound(err) {
		return Reply{}, err
	}

	sess, _ := s.Sessions.Get(userID)
	sess.Username = username
	sess.Selection = session.Selection{
		ItemID:         item.ID,
		ItemName:       item.Name,
		RestaurantName: item.Restaurant.Name,
		UnitPrice:      item.Price,
		Quantity:       qty,
	}
	if user.HasPhone() {
		sess.Profile = profileOf(user)
		sess.Step = session.StepConfirming
	} else {
		sess.Profile = session.Profile{}
		sess.Step = session.StepPhone
	}
	s.Sessions.Put(sess)

	span.SetAttributes(attribute.String("next_step", sess.Step.String()))
	return Reply{Prompt: promptForStep[sess.Step], Session: sess}, nil
}

// HandleText feeds a free-text message into the active flow. handled is
// false when the user has no flow in progress.
func (s *IntakeService) HandleText(ctx context.Context, userID int64, text string) (reply Reply, handled bool, err error) {
	sess, ok := s.Sessions.Get(userID)
	if !ok || !sess.Active() {
		return Reply{}, false, nil
	}
	text = strings.TrimSpace(text)

	switch kw := keyword(text); {
	case kw == "cancel":
		return s.Cancel(ctx, userID), true, nil
	case kw == "confirm" && sess.Step == session.StepConfirming:
		reply, err = s.Confirm(ctx, userID)
		return reply, true, err
	case sess.Step == session.StepConfirming:
		return Reply{Prompt: PromptConfirm, Invalid: true, Session: sess}, true, nil
	}

	step := sess.Step
	valid, err := s.answer(ctx, &sess, text)
	if err != nil {
		return Reply{}, true, err
	}
	if !valid {
		intakeSteps.WithLabelValues(step.String(), "invalid").Inc()
		return Reply{Prompt: promptForStep[step], Invalid: true, Session: sess}, true, nil
	}
	intakeSteps.WithLabelValues(step.String(), "accepted").Inc()
	s.Sessions.Put(sess)
	return Reply{Prompt: promptForStep[sess.Step], Session: sess}, true, nil
}

// answer validates text for the current step and, when valid, records it
// and advances sess. sess is a private copy.
func (s *IntakeService) answer(ctx context.Context, sess *session.Session, text string) (bool, error) {
	switch sess.Step {
	case session.StepPhone:
		if !ValidPhone(text) {
			return false, nil
		}
		sess.Profile.Phone = NormalizePhone(text)
		sess.Step = session.StepName
	case session.StepName:
		if !ValidName(text) {
			return false, nil
		}
		sess.Profile.FullName = text
		sess.Step = session.StepDorm
	case session.StepDorm:
		if text == "" {
			return false, nil
		}
		sess.Profile.Dorm = text
		sess.Step = session.StepBlock
	case session.StepBlock:
		if text == "" {
			return false, nil
		}
		sess.Profile.Block = text
		sess.Step = session.StepRoom
	case session.StepRoom:
		room := text
		if keyword(text) == "skip" {
			room = ""
		}
		p := sess.Profile
		p.Room = room
		if err := s.saveProfile(ctx, sess.UserID, sess.Username, p); err != nil {
			return false, err
		}
		sess.Profile = p
		sess.Step = session.StepConfirming
	default:
		return false, nil
	}
	return true, nil
}

// Confirm places the order for the user's confirming session. A second
// confirm after the order was placed finds no session and returns
// ErrNoActiveSession without side effects.
func (s *IntakeService) Confirm(ctx context.Context, userID int64) (Reply, error) {
	ctx, span := otel.Tracer("services/IntakeService").Start(ctx, "Confirm",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	claimed := false
	sess := s.Sessions.Update(userID, func(ss *session.Session) bool {
		if ss.Step != session.StepConfirming {
			return false
		}
		ss.Step = session.StepDone
		claimed = true
		return true
	})
	if !claimed {
		return Reply{}, ErrNoActiveSession
	}

	sel, p := sess.Selection, sess.Profile
	o := &domain.Order{
		UserID:         userID,
		RestaurantName: sel.RestaurantName,
		FoodName:       sel.ItemName,
		Quantity:       sel.Quantity,
		TotalPrice:     sel.Total(),
		CustomerName:   p.FullName,
		Phone:          p.Phone,
		Dorm:           p.Dorm,
		Block:          p.Block,
		Room:           p.Room,
		Status:         domain.StatusPending,
	}
	if err := s.place(ctx, o); err != nil {
		// Put the user back on the confirmation so they can retry.
		s.Sessions.Update(userID, func(ss *session.Session) bool {
			if ss.Step != session.StepDone {
				return false
			}
			ss.Step = session.StepConfirming
			return true
		})
		span.RecordError(err)
		return Reply{}, err
	}

	s.reset(userID)
	ordersPlaced.Inc()
	span.SetAttributes(attribute.String("order.code", o.OrderCode))

	zerolog.Ctx(ctx).Info().
		Uint("order_id", o.ID).
		Str("order_code", o.OrderCode).
		Float64("total", o.TotalPrice).
		Msg("order placed")

	failed := s.Notify.AdminNewOrder(ctx, o)
	return Reply{Prompt: PromptPlaced, Order: o, Failed: failed}, nil
}

// Cancel abandons any flow in progress. Cancelling with nothing in progress
// is harmless.
func (s *IntakeService) Cancel(ctx context.Context, userID int64) Reply {
	if sess, ok := s.Sessions.Get(userID); ok && sess.Active() {
		zerolog.Ctx(ctx).Debug().Str("step", sess.Step.String()).Msg("intake cancelled")
	}
	s.reset(userID)
	return Reply{Prompt: PromptCancelled}
}

// QuickOrder handles a structured multi-line order. The food line is matched
// against the menu, the profile is saved, and the user lands on the
// confirmation step. A rejected block comes back as PromptQuickOrderHelp
// with Field set.
func (s *IntakeService) QuickOrder(ctx context.Context, userID int64, username, text string) (Reply, error) {
	ctx, span := otel.Tracer("services/IntakeService").Start(ctx, "QuickOrder",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	q, field, err := ParseQuickOrder(text, s.maxQty())
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("quick order rejected")
		intakeSteps.WithLabelValues("quick_order", "invalid").Inc()
		return Reply{Prompt: PromptQuickOrderHelp, Invalid: true, Field: field}, nil
	}
	item, err := s.Catalog.Resolve(ctx, q.Food)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			intakeSteps.WithLabelValues("quick_order", "invalid").Inc()
			return Reply{Prompt: PromptQuickOrderHelp, Invalid: true, Field: FieldFood}, nil
		}
		return Reply{}, err
	}

	p := session.Profile{FullName: q.Name, Phone: q.Phone, Dorm: q.Dorm, Block: q.Block, Room: q.Room}
	if err := s.saveProfile(ctx, userID, username, p); err != nil {
		return Reply{}, err
	}

	sess, _ := s.Sessions.Get(userID)
	sess.Username = username
	sess.Selection = session.Selection{
		ItemID:         item.ID,
		ItemName:       item.Name,
		RestaurantName: item.Restaurant.Name,
		UnitPrice:      item.Price,
		Quantity:       q.Quantity,
	}
	sess.Profile = p
	sess.Step = session.StepConfirming
	s.Sessions.Put(sess)

	intakeSteps.WithLabelValues("quick_order", "accepted").Inc()
	return Reply{Prompt: PromptConfirm, Session: sess}, nil
}

// place inserts o, drawing a fresh order code whenever the previous one
// collided with an existing order.
func (s *IntakeService) place(ctx context.Context, o *domain.Order) error {
	gen := s.NewCode
	if gen == nil {
		gen = NewOrderCode
	}
	tries := s.CodeRetries
	if tries <= 0 {
		tries = 5
	}
	for attempt := 1; attempt <= tries; attempt++ {
		o.ID = 0
		o.OrderCode = gen()
		err := s.Orders.InsertOrder(ctx, o)
		if err == nil {
			return nil
		}
		if !isDuplicate(err) {
			return err
		}
		orderCodeCollisions.Inc()
		zerolog.Ctx(ctx).Warn().
			Str("order_code", o.OrderCode).
			Int("attempt", attempt).
			Msg("order code collision")
	}
	return ErrOrderCodeExhausted
}

func (s *IntakeService) saveProfile(ctx context.Context, userID int64, username string, p session.Profile) error {
	return s.Users.UpsertProfile(ctx, &domain.User{
		UserID:   userID,
		Username: username,
		FullName: p.FullName,
		Phone:    p.Phone,
		Dorm:     p.Dorm,
		Block:    p.Block,
		Room:     p.Room,
	})
}

// reset drops the intake part of a session. The admin review queue
// survives; an otherwise empty session is removed.
func (s *IntakeService) reset(userID int64) {
	after := s.Sessions.Update(userID, func(ss *session.Session) bool {
		ss.Step = session.StepNone
		ss.Selection = session.Selection{}
		ss.Profile = session.Profile{}
		return true
	})
	if len(after.PendingQueue) == 0 {
		s.Sessions.Clear(userID)
	}
}

func profileOf(u *domain.User) session.Profile {
	return session.Profile{
		FullName: u.FullName,
		Phone:    u.Phone,
		Dorm:     u.Dorm,
		Block:    u.Block,
		Room:     u.Room,
	}
}
