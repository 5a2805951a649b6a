package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/services"
)

// Notifier delivers order notifications through the Bot API.
type Notifier struct {
	API    API
	Format *Formatter
}

var _ services.Notifier = (*Notifier)(nil)

// NewNotifier returns a Notifier. f may be nil for default formatting.
func NewNotifier(api API, f *Formatter) *Notifier {
	if f == nil {
		f = NewFormatter("", "")
	}
	return &Notifier{API: api, Format: f}
}

// SendAdminOrder posts the order card with action buttons to the admin chat.
func (n *Notifier) SendAdminOrder(ctx context.Context, adminID int64, o *domain.Order) error {
	return n.send(adminID, n.Format.AdminOrder(o), ptr(orderActionsKeyboard(o, false)))
}

// SendCustomerStatus tells the ordering user about the order's new status.
func (n *Notifier) SendCustomerStatus(ctx context.Context, o *domain.Order) error {
	return n.send(o.UserID, n.Format.CustomerStatus(o), nil)
}

func (n *Notifier) send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := n.API.Send(msg); err != nil {
		sendErrors.WithLabelValues("notify").Inc()
		return err
	}
	return nil
}
