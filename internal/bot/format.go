package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/services"
	"github.com/tbourn/tapeat-bot/internal/session"
)

// Formatter renders HTML message bodies. All user-supplied text is escaped.
type Formatter struct {
	Currency string
	Estimate string
	Lang     language.Tag
}

// NewFormatter returns a Formatter with English number formatting.
func NewFormatter(currency, estimate string) *Formatter {
	if currency == "" {
		currency = "$"
	}
	if estimate == "" {
		estimate = "30-45 minutes"
	}
	return &Formatter{Currency: currency, Estimate: estimate, Lang: language.English}
}

// Money formats v with two decimals, grouping, and the currency prefix.
func (f *Formatter) Money(v float64) string {
	return message.NewPrinter(f.Lang).Sprintf("%s%.2f", f.Currency, v)
}

func esc(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }

// Welcome is the /start greeting.
func (f *Formatter) Welcome(firstName string, admin bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎓 <b>Welcome to TAP&amp;EAT, %s!</b>\n\n", esc(firstName))
	b.WriteString("🍔 <b>Your Campus Food Delivery Bot</b>\n\n")
	b.WriteString("📍 <b>How it works:</b>\n")
	b.WriteString("1. Tap '🍽️ Order Food'\n2. Choose restaurant\n3. Select food &amp; quantity\n4. Confirm details\n5. We deliver to your dorm!\n\n")
	b.WriteString("⚡ <i>Quick order:</i> send food, quantity, phone, name, dorm and block on six lines.\n")
	b.WriteString("🔎 <i>Search:</i> /search pizza")
	if admin {
		b.WriteString("\n\n👑 <b>Admin privileges activated!</b>")
	}
	return b.String()
}

// Help is the /help text.
func (f *Formatter) Help(admin bool) string {
	var b strings.Builder
	b.WriteString("<b>🤖 TAP&amp;EAT - Help Guide</b>\n\n")
	b.WriteString("<b>For Students:</b>\n")
	b.WriteString("• Use '🍽️ Order Food' to place orders\n")
	b.WriteString("• Check '📋 My Orders' for status\n")
	b.WriteString("• /search &lt;text&gt; finds dishes\n")
	b.WriteString("• /cancel stops an order in progress\n")
	if admin {
		b.WriteString("\n<b>For Admin:</b>\n")
		b.WriteString("• /pending reviews pending orders\n")
		b.WriteString("• /orders lists recent orders\n")
		b.WriteString("• /stats shows totals\n")
		b.WriteString("• /clear deletes all orders\n")
		b.WriteString("• /addrest &lt;name&gt;\n")
		b.WriteString("• /addfood &lt;restaurant_id&gt; &lt;name&gt; &lt;price&gt;\n")
	}
	return b.String()
}

// Summary is the confirmation screen for a session on the confirming step.
func (f *Formatter) Summary(s session.Session) string {
	sel, p := s.Selection, s.Profile
	var b strings.Builder
	b.WriteString("✅ <b>ORDER SUMMARY</b>\n\n")
	fmt.Fprintf(&b, "🏪 Restaurant: %s\n", esc(sel.RestaurantName))
	fmt.Fprintf(&b, "🍽️ Item: %s\n", esc(sel.ItemName))
	fmt.Fprintf(&b, "💰 Price: %s each\n", f.Money(sel.UnitPrice))
	fmt.Fprintf(&b, "🔢 Quantity: %d\n", sel.Quantity)
	fmt.Fprintf(&b, "💵 Total: <b>%s</b>\n\n", f.Money(sel.Total()))
	fmt.Fprintf(&b, "👤 Customer: %s\n", esc(p.FullName))
	fmt.Fprintf(&b, "📞 Phone: %s\n", esc(p.Phone))
	fmt.Fprintf(&b, "📍 %s\n\n", f.address(p.Dorm, p.Block, p.Room))
	b.WriteString("<b>Please confirm your order:</b>")
	return b.String()
}

func (f *Formatter) address(dorm, block, room string) string {
	s := fmt.Sprintf("Dorm: %s, Block: %s", esc(dorm), esc(block))
	if room != "" {
		s += ", Room: " + esc(room)
	}
	return s
}

// Prompt renders an intake reply. PromptConfirm renders the summary.
func (f *Formatter) Prompt(r services.Reply) string {
	switch r.Prompt {
	case services.PromptPhone:
		if r.Invalid {
			return "❌ <b>Invalid phone number.</b>\n\nSend at least 10 digits, e.g. <code>+251 911223344</code>:"
		}
		return "📝 <b>We need your information for delivery:</b>\n\nPlease send your phone number:"
	case services.PromptName:
		if r.Invalid {
			return "❌ Name is too short. Please send your full name:"
		}
		return "✅ Phone saved!\n\nNow send your <b>full name</b>:"
	case services.PromptDorm:
		if r.Invalid {
			return "❌ Please send your dorm name or number:"
		}
		return "✅ Name saved!\n\nSend your <b>dorm</b> name or number:"
	case services.PromptBlock:
		if r.Invalid {
			return "❌ Please send your block:"
		}
		return "✅ Dorm saved!\n\nSend your <b>block</b>:"
	case services.PromptRoom:
		return "✅ Block saved!\n\nSend your <b>room number</b> (or type <code>skip</code>):"
	case services.PromptConfirm:
		if r.Invalid {
			return "👆 Please tap <b>✅ Confirm Order</b> or <b>❌ Cancel</b>, or type CONFIRM / CANCEL.\n\n" + f.Summary(r.Session)
		}
		return f.Summary(r.Session)
	case services.PromptPlaced:
		return f.Placed(r.Order)
	case services.PromptCancelled:
		return "❌ Order cancelled.\n\nTap '🍽️ Order Food' whenever you are hungry!"
	case services.PromptQuickOrderHelp:
		return f.QuickOrderHelp(r.Field)
	}
	return ""
}

// Placed confirms a new order to the customer.
func (f *Formatter) Placed(o *domain.Order) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Order #%d placed successfully!</b>\n\n", o.ID)
	fmt.Fprintf(&b, "📦 Order Code: <code>%s</code>\n", esc(o.OrderCode))
	fmt.Fprintf(&b, "🏪 Restaurant: %s\n", esc(o.RestaurantName))
	fmt.Fprintf(&b, "🍽️ Item: %s (x%d)\n", esc(o.FoodName), o.Quantity)
	fmt.Fprintf(&b, "💰 Total: %s\n", f.Money(o.TotalPrice))
	fmt.Fprintf(&b, "⏰ Status: Pending approval\n🚚 Estimated delivery: %s\n\n", esc(f.Estimate))
	b.WriteString("<i>Admin has been notified. You'll receive updates soon!</i>")
	return b.String()
}

// QuickOrderHelp explains the six-line format, naming the rejected line.
func (f *Formatter) QuickOrderHelp(field string) string {
	var b strings.Builder
	switch field {
	case services.FieldFood:
		b.WriteString("❌ We couldn't find that dish on the menu. Try /search.\n\n")
	case services.FieldQuantity:
		b.WriteString("❌ Quantity must be a positive whole number.\n\n")
	case services.FieldPhone:
		b.WriteString("❌ Phone must have at least 10 digits.\n\n")
	case services.FieldName:
		b.WriteString("❌ Name is too short.\n\n")
	case services.FieldDorm, services.FieldBlock:
		b.WriteString("❌ Dorm and block cannot be empty.\n\n")
	}
	b.WriteString("📋 <b>Quick order format</b> (one per line):\n")
	b.WriteString("<code>Margherita Pizza\n2\n0911223344\nJohn\nDorm 5\nBlock B</code>\n\n")
	b.WriteString("<i>An optional 7th line sets your room.</i>")
	return b.String()
}

// AdminOrder is the full order card sent to the administrator.
func (f *Formatter) AdminOrder(o *domain.Order) string {
	var b strings.Builder
	if o.Status == domain.StatusPending {
		fmt.Fprintf(&b, "🚨 <b>NEW ORDER #%d</b>\n", o.ID)
	} else {
		fmt.Fprintf(&b, "📦 <b>ORDER #%d</b>\n", o.ID)
	}
	fmt.Fprintf(&b, "📦 Code: <code>%s</code>\n\n", esc(o.OrderCode))
	fmt.Fprintf(&b, "🍽️ <b>%s</b>\n", esc(o.FoodName))
	fmt.Fprintf(&b, "🏪 From: %s\n", esc(o.RestaurantName))
	fmt.Fprintf(&b, "🔢 Quantity: %d\n", o.Quantity)
	fmt.Fprintf(&b, "💰 Total: %s\n\n", f.Money(o.TotalPrice))
	fmt.Fprintf(&b, "👤 <b>%s</b>\n", esc(o.CustomerName))
	fmt.Fprintf(&b, "📞 %s\n", esc(o.Phone))
	fmt.Fprintf(&b, "📍 %s\n\n", f.address(o.Dorm, o.Block, o.Room))
	fmt.Fprintf(&b, "⏰ %s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "📊 Status: <b>%s</b>", strings.ToUpper(string(o.Status)))
	return b.String()
}

// CustomerStatus tells the customer about a status change.
func (f *Formatter) CustomerStatus(o *domain.Order) string {
	var what string
	switch o.Status {
	case domain.StatusAccepted:
		what = "accepted ✅\n\nYour order is being prepared!"
	case domain.StatusRejected:
		what = "rejected ❌\n\nPlease contact admin for details."
	case domain.StatusDelivered:
		what = "delivered 🚚\n\nEnjoy your meal!"
	default:
		what = string(o.Status)
	}
	return fmt.Sprintf("📢 <b>Order Update!</b>\n\nOrder #%d (%s) has been %s\n\nThank you for using TAP&amp;EAT!",
		o.ID, esc(o.OrderCode), what)
}

// OrderList renders a compact list of orders under title.
func (f *Formatter) OrderList(title string, orders []domain.Order, withCustomer bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	if len(orders) == 0 {
		b.WriteString("\n📭 No orders yet.")
		return b.String()
	}
	for _, o := range orders {
		fmt.Fprintf(&b, "\n<b>#%d</b> <code>%s</code> %s\n", o.ID, esc(o.OrderCode), o.Status.Label())
		fmt.Fprintf(&b, "🍽️ %s x%d · %s\n", esc(o.FoodName), o.Quantity, f.Money(o.TotalPrice))
		if withCustomer {
			fmt.Fprintf(&b, "👤 %s · %s\n", esc(o.CustomerName), esc(o.Phone))
		}
		fmt.Fprintf(&b, "⏰ %s\n", o.CreatedAt.Format("Jan 2 15:04"))
	}
	return b.String()
}

// Profile renders the saved delivery profile.
func (f *Formatter) Profile(u *domain.User) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Your Information</b>\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", esc(u.FullName))
	fmt.Fprintf(&b, "📞 Phone: %s\n", esc(u.Phone))
	fmt.Fprintf(&b, "📍 %s\n\n", f.address(u.Dorm, u.Block, u.Room))
	b.WriteString("<i>Your info is updated every time you complete an order form.</i>")
	return b.String()
}

// NoProfile is shown by "My Info" before the first order.
func (f *Formatter) NoProfile() string {
	return "⚙️ <b>No information saved yet.</b>\n\nPlace your first order and we'll ask for your delivery details."
}

// Stats renders aggregate totals for the administrator.
func (f *Formatter) Stats(s domain.Stats) string {
	var b strings.Builder
	b.WriteString("📈 <b>TAP&amp;EAT Statistics</b>\n\n")
	fmt.Fprintf(&b, "👥 Users: %d\n", s.Users)
	fmt.Fprintf(&b, "🏪 Restaurants: %d\n", s.Restaurants)
	fmt.Fprintf(&b, "📦 Orders: %d\n", s.Orders)
	fmt.Fprintf(&b, "⏳ Pending: %d\n", s.Pending)
	fmt.Fprintf(&b, "✅ Delivered: %d\n", s.Delivered)
	fmt.Fprintf(&b, "💰 Revenue: <b>%s</b>", f.Money(s.Revenue))
	return b.String()
}

// MenuHeader introduces a restaurant's menu.
func (f *Formatter) MenuHeader(r *domain.Restaurant, items int) string {
	if items == 0 {
		return fmt.Sprintf("🏪 <b>%s</b>\n\n😔 Nothing available right now.", esc(r.Name))
	}
	return fmt.Sprintf("🏪 <b>%s</b>\n\nChoose an item:", esc(r.Name))
}

// ItemHeader asks for a quantity.
func (f *Formatter) ItemHeader(it *domain.MenuItem) string {
	return fmt.Sprintf("🍽️ <b>%s</b>\n💰 %s\n\nHow many would you like?", esc(it.Name), f.Money(it.Price))
}

// ContactAlert is the short alert with a customer's phone.
func (f *Formatter) ContactAlert(o *domain.Order) string {
	return fmt.Sprintf("📞 Customer: %s\nPhone: %s", o.CustomerName, o.Phone)
}

// ReviewDone is shown when the review queue runs dry after a change.
func (f *Formatter) ReviewDone(o *domain.Order) string {
	return fmt.Sprintf("✅ Order #%d has been %s!\n\nView more orders:", o.ID, o.Status)
}

// ErrorText maps a service error to a short user-visible message.
func (f *Formatter) ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, services.ErrItemNotFound):
		return "❌ That item is no longer available."
	case errors.Is(err, services.ErrRestaurantNotFound):
		return "❌ Restaurant not found!"
	case errors.Is(err, services.ErrOrderNotFound):
		return "❌ Order not found!"
	case errors.Is(err, services.ErrForbidden):
		return "⛔ Admin only!"
	case errors.Is(err, services.ErrInvalidTransition):
		return "⚠️ That order can no longer move to this status."
	case errors.Is(err, services.ErrNoActiveSession):
		return "⚠️ Order details missing! Please start a new order."
	case errors.Is(err, services.ErrNoPendingOrder):
		return "📭 No orders to review."
	case errors.Is(err, services.ErrInvalidQuantity):
		return "❌ Invalid quantity."
	case errors.Is(err, services.ErrDuplicateRestaurant):
		return "⚠️ A restaurant with that name already exists."
	case errors.Is(err, services.ErrEmptyName):
		return "❌ Name cannot be empty."
	case errors.Is(err, services.ErrInvalidPrice):
		return "❌ Price must be a non-negative number."
	}
	return "😔 Sorry, something went wrong. Please try again."
}
