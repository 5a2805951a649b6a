// Package bot adapts the TAP&EAT services to the Telegram Bot API.
//
// The package owns everything transport-specific: routing commands,
// callback buttons, and free text to the services; rendering replies as
// HTML with inline keyboards; delivering order notifications; and feeding
// updates through a Dispatcher that keeps each user's updates in order while
// different users are served concurrently.
//
// Services never see Telegram types. They return domain values and sentinel
// errors, and this package decides what the user reads.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tbourn/tapeat-bot/internal/services"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services bundles the use-cases the router drives.
type Services struct {
	Intake  *services.IntakeService
	Admin   *services.AdminService
	Catalog *services.CatalogService
	Account *services.AccountService
}

// Bot routes Telegram updates to the services.
type Bot struct {
	api API
	svc Services
	fmt *Formatter

	// SearchLimit caps /search results. Defaults to 5.
	SearchLimit int
}

// New returns a Bot. f may be nil for default formatting.
func New(api API, svc Services, f *Formatter) *Bot {
	if f == nil {
		f = NewFormatter("", "")
	}
	return &Bot{api: api, svc: svc, fmt: f, SearchLimit: 5}
}

func (b *Bot) isAdmin(userID int64) bool { return b.svc.Admin.IsAdmin(userID) }

// send posts a new HTML message. Failures are logged and counted.
func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		sendErrors.WithLabelValues("send").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
	}
}

// show replaces the message a button was pressed on. Without a message id,
// or when the edit is refused, it sends a new message instead.
func (b *Bot) show(ctx context.Context, chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if msgID == 0 {
		b.send(ctx, chatID, text, kb)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = kb
	if _, err := b.api.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		sendErrors.WithLabelValues("edit").Inc()
		zerolog.Ctx(ctx).Debug().Err(err).Int("message_id", msgID).Msg("edit failed, sending new message")
		b.send(ctx, chatID, text, kb)
	}
}

// answer acknowledges a callback query, optionally as a modal alert.
func (b *Bot) answer(ctx context.Context, queryID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(queryID, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		sendErrors.WithLabelValues("callback").Inc()
		zerolog.Ctx(ctx).Debug().Err(err).Msg("callback answer failed")
	}
}

// fail tells the user something went wrong. Unexpected errors are logged.
func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	logFailure(ctx, err)
	b.send(ctx, chatID, b.fmt.ErrorText(err), nil)
}

func logFailure(ctx context.Context, err error) {
	if isExpected(err) {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("request rejected")
		return
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func ptr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup { return &kb }
