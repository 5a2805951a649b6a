package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/services"
	"github.com/tbourn/tapeat-bot/internal/utils"
)

// expected are service errors that describe a user mistake or a stale
// button rather than a fault.
var expected = []error{
	services.ErrItemNotFound,
	services.ErrRestaurantNotFound,
	services.ErrDuplicateRestaurant,
	services.ErrEmptyName,
	services.ErrInvalidPrice,
	services.ErrInvalidQuantity,
	services.ErrNoActiveSession,
	services.ErrProfileNotFound,
	services.ErrForbidden,
	services.ErrOrderNotFound,
	services.ErrInvalidTransition,
	services.ErrNoPendingOrder,
}

func isExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// HandleUpdate routes one update. It is safe to call concurrently for
// different users; the Dispatcher serializes calls per user.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil:
		b.onMessage(ctx, upd.Message)
	}
}

// ----------------------------------------------------------------------------
// Messages

func (b *Bot) onMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.IsCommand() {
		b.onCommand(ctx, m)
		return
	}
	if strings.TrimSpace(m.Text) == "" {
		return
	}
	uid, chatID := m.From.ID, m.Chat.ID

	reply, handled, err := b.svc.Intake.HandleText(ctx, uid, m.Text)
	if handled {
		b.renderIntake(ctx, uid, chatID, 0, reply, err)
		return
	}
	if services.LooksLikeQuickOrder(m.Text) {
		reply, err := b.svc.Intake.QuickOrder(ctx, uid, m.From.UserName, m.Text)
		b.renderIntake(ctx, uid, chatID, 0, reply, err)
		return
	}
	b.send(ctx, chatID, "👋 Use the menu below to order, or send /help.", ptr(mainMenuKeyboard(b.isAdmin(uid))))
}

func (b *Bot) onCommand(ctx context.Context, m *tgbotapi.Message) {
	uid, chatID := m.From.ID, m.Chat.ID
	args := strings.TrimSpace(m.CommandArguments())
	admin := b.isAdmin(uid)

	switch m.Command() {
	case "start":
		if err := b.svc.Account.Register(ctx, uid, m.From.UserName, fullName(m.From)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("register user failed")
		}
		b.send(ctx, chatID, b.fmt.Welcome(m.From.FirstName, admin), ptr(mainMenuKeyboard(admin)))

	case "help":
		b.send(ctx, chatID, b.fmt.Help(admin), nil)

	case "menu", "order":
		b.showRestaurants(ctx, chatID, 0)

	case "cancel":
		b.renderIntake(ctx, uid, chatID, 0, b.svc.Intake.Cancel(ctx, uid), nil)

	case "search":
		b.search(ctx, chatID, args)

	case "myorders":
		b.showHistory(ctx, uid, chatID, 0)

	case "pending":
		b.startReview(ctx, uid, chatID, 0)

	case "orders":
		orders, err := b.svc.Admin.RecentOrders(ctx, uid)
		if err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.send(ctx, chatID, b.fmt.OrderList("📦 Recent Orders", orders, true), nil)

	case "clear":
		n, err := b.svc.Admin.ClearOrders(ctx, uid)
		if err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.send(ctx, chatID, fmt.Sprintf("🗑️ Cleared %d orders.", n), nil)

	case "stats":
		st, err := b.svc.Admin.Stats(ctx, uid)
		if err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.send(ctx, chatID, b.fmt.Stats(st), nil)

	case "addrest":
		r, err := b.svc.Catalog.AddRestaurant(ctx, uid, args)
		if err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.send(ctx, chatID, fmt.Sprintf("✅ Restaurant <b>%s</b> added (id %d).", esc(r.Name), r.ID), nil)

	case "addfood":
		b.addFood(ctx, uid, chatID, args)

	default:
		b.send(ctx, chatID, "🤔 Unknown command. Try /help.", nil)
	}
}

// addFood handles "/addfood <restaurant_id> <name…> <price>".
func (b *Bot) addFood(ctx context.Context, uid, chatID int64, args string) {
	const usage = "Usage: <code>/addfood &lt;restaurant_id&gt; &lt;name&gt; &lt;price&gt;</code>"
	if !b.isAdmin(uid) {
		b.fail(ctx, chatID, services.ErrForbidden)
		return
	}
	fields := strings.Fields(args)
	if len(fields) < 3 {
		b.send(ctx, chatID, usage, nil)
		return
	}
	restID, okID := utils.ParseID(fields[0])
	price, okPrice := utils.ParsePrice(fields[len(fields)-1])
	if !okID || !okPrice {
		b.send(ctx, chatID, usage, nil)
		return
	}
	name := strings.Join(fields[1:len(fields)-1], " ")
	it, err := b.svc.Catalog.AddMenuItem(ctx, uid, restID, name, price)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.send(ctx, chatID, fmt.Sprintf("✅ Added <b>%s</b> at %s (id %d).", esc(it.Name), b.fmt.Money(it.Price), it.ID), nil)
}

func (b *Bot) search(ctx context.Context, chatID int64, q string) {
	if q == "" {
		b.send(ctx, chatID, "🔎 Usage: <code>/search pizza</code>", nil)
		return
	}
	items, err := b.svc.Catalog.Search(ctx, q, b.SearchLimit)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if len(items) == 0 {
		b.send(ctx, chatID, fmt.Sprintf("🔎 No dishes match <b>%s</b>.", esc(q)), ptr(backToMainKeyboard()))
		return
	}
	b.send(ctx, chatID, fmt.Sprintf("🔎 Results for <b>%s</b>:", esc(q)), ptr(b.itemsKeyboard(items, actOrderFood)))
}

// renderIntake shows an intake reply, or the error that replaced it.
func (b *Bot) renderIntake(ctx context.Context, uid, chatID int64, msgID int, r services.Reply, err error) {
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	var kb *tgbotapi.InlineKeyboardMarkup
	switch r.Prompt {
	case services.PromptConfirm:
		kb = ptr(confirmCancelKeyboard())
	case services.PromptPlaced, services.PromptCancelled:
		kb = ptr(mainMenuKeyboard(b.isAdmin(uid)))
	}
	b.show(ctx, chatID, msgID, b.fmt.Prompt(r), kb)
}

// ----------------------------------------------------------------------------
// Callback buttons

// cbCtx carries what every button handler needs.
type cbCtx struct {
	uid      int64
	username string
	chatID   int64
	msgID    int
	admin    bool
	cb       callback
}

// toast is the callback acknowledgement shown after a button press.
type toast struct {
	text  string
	alert bool
}

func (b *Bot) onCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	c := cbCtx{
		uid:      q.From.ID,
		username: q.From.UserName,
		chatID:   q.From.ID,
		admin:    b.isAdmin(q.From.ID),
		cb:       parseCallback(q.Data),
	}
	if q.Message != nil && q.Message.Chat != nil {
		c.chatID, c.msgID = q.Message.Chat.ID, q.Message.MessageID
	}

	t, err := b.dispatchCallback(ctx, c)
	if err != nil {
		logFailure(ctx, err)
		t = toast{text: b.fmt.ErrorText(err), alert: true}
	}
	b.answer(ctx, q.ID, t.text, t.alert)
}

func (b *Bot) dispatchCallback(ctx context.Context, c cbCtx) (toast, error) {
	switch c.cb.action {
	case actMain:
		b.show(ctx, c.chatID, c.msgID, "🏠 <b>Main Menu</b>\n\nWhat would you like to do?", ptr(mainMenuKeyboard(c.admin)))
		return toast{}, nil

	case actHelp:
		b.show(ctx, c.chatID, c.msgID, b.fmt.Help(c.admin), ptr(backToMainKeyboard()))
		return toast{}, nil

	case actOrderFood:
		return toast{}, b.showRestaurants(ctx, c.chatID, c.msgID)

	case actRestaurant:
		return toast{}, b.showMenu(ctx, c.chatID, c.msgID, uint(c.cb.arg(0)))

	case actItem:
		it, err := b.svc.Catalog.Item(ctx, uint(c.cb.arg(0)))
		if err != nil {
			return toast{}, err
		}
		b.show(ctx, c.chatID, c.msgID, b.fmt.ItemHeader(it), ptr(quantityKeyboard(it.ID, it.RestaurantID)))
		return toast{}, nil

	case actQuantity:
		r, err := b.svc.Intake.SelectItem(ctx, c.uid, c.username, uint(c.cb.arg(0)), c.cb.arg(1))
		if err != nil {
			return toast{}, err
		}
		b.renderIntake(ctx, c.uid, c.chatID, c.msgID, r, nil)
		return toast{}, nil

	case actConfirm:
		r, err := b.svc.Intake.Confirm(ctx, c.uid)
		if err != nil {
			return toast{}, err
		}
		b.renderIntake(ctx, c.uid, c.chatID, c.msgID, r, nil)
		return toast{text: "✅ Order placed!"}, nil

	case actCancel:
		b.renderIntake(ctx, c.uid, c.chatID, c.msgID, b.svc.Intake.Cancel(ctx, c.uid), nil)
		return toast{text: "Order cancelled"}, nil

	case actMyOrders:
		return toast{}, b.showHistory(ctx, c.uid, c.chatID, c.msgID)

	case actMyInfo:
		u, err := b.svc.Account.Profile(ctx, c.uid)
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			b.show(ctx, c.chatID, c.msgID, b.fmt.NoProfile(), ptr(backToMainKeyboard()))
		case err != nil:
			return toast{}, err
		default:
			b.show(ctx, c.chatID, c.msgID, b.fmt.Profile(u), ptr(backToMainKeyboard()))
		}
		return toast{}, nil

	case actAdminPanel:
		if !c.admin {
			return toast{}, services.ErrForbidden
		}
		b.show(ctx, c.chatID, c.msgID, "👑 <b>Admin Panel</b>", ptr(adminKeyboard()))
		return toast{}, nil

	case actViewOrders:
		return toast{}, b.startReview(ctx, c.uid, c.chatID, c.msgID)

	case actRecent:
		orders, err := b.svc.Admin.RecentOrders(ctx, c.uid)
		if err != nil {
			return toast{}, err
		}
		b.show(ctx, c.chatID, c.msgID, b.fmt.OrderList("📦 Recent Orders", orders, true), ptr(adminKeyboard()))
		return toast{}, nil

	case actStats:
		st, err := b.svc.Admin.Stats(ctx, c.uid)
		if err != nil {
			return toast{}, err
		}
		b.show(ctx, c.chatID, c.msgID, b.fmt.Stats(st), ptr(adminKeyboard()))
		return toast{}, nil

	case actAccept, actReject, actDeliver:
		to, _ := domain.ParseStatus(c.cb.action)
		return b.changeStatus(ctx, c, uint(c.cb.arg(0)), to)

	case actNextOrder:
		o, remaining, err := b.svc.Admin.NextInReview(ctx, c.uid)
		if errors.Is(err, services.ErrNoPendingOrder) {
			b.show(ctx, c.chatID, c.msgID, "📭 No more orders to review.", ptr(adminKeyboard()))
			return toast{}, nil
		}
		if err != nil {
			return toast{}, err
		}
		b.showReviewOrder(ctx, c.chatID, c.msgID, o, remaining)
		return toast{}, nil

	case actCallCust:
		o, err := b.svc.Admin.CustomerContact(ctx, c.uid, uint(c.cb.arg(0)))
		if err != nil {
			return toast{}, err
		}
		return toast{text: b.fmt.ContactAlert(o), alert: true}, nil
	}
	return toast{text: "🤔 Unknown action"}, nil
}

func (b *Bot) changeStatus(ctx context.Context, c cbCtx, orderID uint, to domain.OrderStatus) (toast, error) {
	ch, err := b.svc.Admin.ChangeStatus(ctx, c.uid, orderID, to)
	if err != nil {
		return toast{}, err
	}
	switch {
	case !ch.Order.Status.Terminal():
		b.showReviewOrder(ctx, c.chatID, c.msgID, ch.Order, ch.Remaining)
	case ch.Next != nil:
		b.showReviewOrder(ctx, c.chatID, c.msgID, ch.Next, ch.Remaining)
	default:
		b.show(ctx, c.chatID, c.msgID, b.fmt.ReviewDone(ch.Order), ptr(adminKeyboard()))
	}
	t := toast{text: fmt.Sprintf("✅ Order %s!", to)}
	if ch.Failed != nil {
		t.text += " (customer could not be notified)"
	}
	return t, nil
}

// ----------------------------------------------------------------------------
// Shared screens

func (b *Bot) showRestaurants(ctx context.Context, chatID int64, msgID int) error {
	rs, err := b.svc.Catalog.Restaurants(ctx)
	if err != nil {
		if msgID == 0 {
			b.fail(ctx, chatID, err)
			return nil
		}
		return err
	}
	if len(rs) == 0 {
		b.show(ctx, chatID, msgID, "😔 No restaurants available right now.", ptr(backToMainKeyboard()))
		return nil
	}
	b.show(ctx, chatID, msgID, "🏪 <b>Choose a restaurant:</b>", ptr(restaurantsKeyboard(rs)))
	return nil
}

func (b *Bot) showMenu(ctx context.Context, chatID int64, msgID int, restID uint) error {
	r, items, err := b.svc.Catalog.Menu(ctx, restID)
	if err != nil {
		return err
	}
	b.show(ctx, chatID, msgID, b.fmt.MenuHeader(r, len(items)), ptr(b.itemsKeyboard(items, actOrderFood)))
	return nil
}

func (b *Bot) showHistory(ctx context.Context, uid, chatID int64, msgID int) error {
	orders, err := b.svc.Account.History(ctx, uid)
	if err != nil {
		if msgID == 0 {
			b.fail(ctx, chatID, err)
			return nil
		}
		return err
	}
	b.show(ctx, chatID, msgID, b.fmt.OrderList("📋 Your Orders", orders, false), ptr(backToMainKeyboard()))
	return nil
}

func (b *Bot) startReview(ctx context.Context, uid, chatID int64, msgID int) error {
	first, remaining, err := b.svc.Admin.StartReview(ctx, uid)
	switch {
	case errors.Is(err, services.ErrNoPendingOrder):
		b.show(ctx, chatID, msgID, "📭 No orders to review.", ptr(adminKeyboard()))
		return nil
	case err != nil:
		if msgID == 0 {
			b.fail(ctx, chatID, err)
			return nil
		}
		return err
	}
	b.showReviewOrder(ctx, chatID, msgID, first, remaining)
	return nil
}

// showReviewOrder renders o with the actions its status allows.
func (b *Bot) showReviewOrder(ctx context.Context, chatID int64, msgID int, o *domain.Order, remaining int) {
	text := b.fmt.AdminOrder(o)
	if remaining > 0 {
		text += fmt.Sprintf("\n\n<i>%d more to review</i>", remaining)
	}
	b.show(ctx, chatID, msgID, text, ptr(orderActionsKeyboard(o, remaining > 0)))
}
