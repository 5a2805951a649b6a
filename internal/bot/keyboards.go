package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/utils"
)

// Callback actions. Payloads are "<action>[:<id>[:<n>]]" and stay well under
// Telegram's 64-byte limit.
const (
	actMain       = "main"
	actOrderFood  = "order_food"
	actMyOrders   = "my_orders"
	actMyInfo     = "my_info"
	actHelp       = "help"
	actAdminPanel = "admin_panel"
	actViewOrders = "view_orders"
	actRecent     = "recent"
	actStats      = "stats"
	actRestaurant = "rest"
	actItem       = "item"
	actQuantity   = "qty"
	actConfirm    = "confirm_order"
	actCancel     = "cancel_order"
	actAccept     = "accept"
	actReject     = "reject"
	actDeliver    = "deliver"
	actCallCust   = "call"
	actNextOrder  = "next_order"
)

// callback is a parsed callback payload.
type callback struct {
	action string
	args   []int
}

func callbackData(action string, args ...uint) string {
	if len(args) == 0 {
		return action
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// parseCallback splits a payload. Non-numeric or negative arguments become
// 0, which no handler accepts as an id.
func parseCallback(data string) callback {
	parts := strings.Split(data, ":")
	cb := callback{action: parts[0]}
	for _, p := range parts[1:] {
		cb.args = append(cb.args, max(utils.AtoiDefault(p, 0), 0))
	}
	return cb
}

// arg returns the i-th argument, or 0 when absent.
func (c callback) arg(i int) int {
	if i < len(c.args) {
		return c.args[i]
	}
	return 0
}

// quantityChoices are offered on the quantity picker.
var quantityChoices = []int{1, 2, 3, 4, 5, 8}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func mainMenuKeyboard(admin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(btn("🍽️ Order Food", actOrderFood)),
		tgbotapi.NewInlineKeyboardRow(btn("📋 My Orders", actMyOrders)),
		tgbotapi.NewInlineKeyboardRow(btn("⚙️ My Info", actMyInfo)),
		tgbotapi.NewInlineKeyboardRow(btn("ℹ️ Help", actHelp)),
	}
	if admin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("👑 Admin Panel", actAdminPanel)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("📊 Review Orders", actViewOrders)),
		tgbotapi.NewInlineKeyboardRow(btn("🧾 Recent Orders", actRecent)),
		tgbotapi.NewInlineKeyboardRow(btn("📈 Stats", actStats)),
		tgbotapi.NewInlineKeyboardRow(btn("🏠 Main Menu", actMain)),
	)
}

func backToMainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("🏠 Main Menu", actMain)),
	)
}

func restaurantsKeyboard(rs []domain.Restaurant) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rs)+1)
	for _, r := range rs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(r.Name, callbackData(actRestaurant, r.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("🔙 Back", actMain)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) itemsKeyboard(items []domain.MenuItem, back string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, it := range items {
		label := fmt.Sprintf("%s - %s", it.Name, b.fmt.Money(it.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn(label, callbackData(actItem, it.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("🔙 Back to Restaurants", back)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func quantityKeyboard(itemID, restaurantID uint) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, n := range quantityChoices {
		row = append(row, btn(fmt.Sprint(n), callbackData(actQuantity, itemID, uint(n))))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("🔙 Back", callbackData(actRestaurant, restaurantID))))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn("✅ Confirm Order", actConfirm)),
		tgbotapi.NewInlineKeyboardRow(btn("❌ Cancel", actCancel)),
	)
}

// orderActionsKeyboard offers the moves o can still make. hasNext adds a
// button that skips ahead in the review queue.
func orderActionsKeyboard(o *domain.Order, hasNext bool) tgbotapi.InlineKeyboardMarkup {
	call := btn("📞 Call Customer", callbackData(actCallCust, o.ID))
	var rows [][]tgbotapi.InlineKeyboardButton
	switch o.Status {
	case domain.StatusPending:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				btn("✅ Accept", callbackData(actAccept, o.ID)),
				btn("❌ Reject", callbackData(actReject, o.ID)),
			),
			tgbotapi.NewInlineKeyboardRow(call),
		)
	case domain.StatusAccepted:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn("🚚 Deliver", callbackData(actDeliver, o.ID)),
			call,
		))
	default:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(call))
	}
	if hasNext {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("⏭ Next Order", actNextOrder)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn("🔙 Admin Panel", actAdminPanel)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
