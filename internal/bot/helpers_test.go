package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/repo"
	"github.com/tbourn/tapeat-bot/internal/services"
	"github.com/tbourn/tapeat-bot/internal/session"
)

const (
	adminID int64 = 999
	aliceID int64 = 42
)

// outgoing is one recorded Bot API call.
type outgoing struct {
	Method string // send|edit|callback
	ChatID int64
	Text   string
	Alert  bool
	Markup *tgbotapi.InlineKeyboardMarkup
}

// fakeAPI records every call and fails on demand.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []outgoing
	nextID   int
	failSend map[int64]error
	failEdit error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unexpected Send(%T)", c)
	}
	if err := f.failSend[m.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	o := outgoing{Method: "send", ChatID: m.ChatID, Text: m.Text}
	if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
		o.Markup = &kb
	}
	f.calls = append(f.calls, o)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.failEdit != nil {
			return nil, f.failEdit
		}
		f.calls = append(f.calls, outgoing{Method: "edit", ChatID: v.ChatID, Text: v.Text, Markup: v.ReplyMarkup})
	case tgbotapi.CallbackConfig:
		f.calls = append(f.calls, outgoing{Method: "callback", Text: v.Text, Alert: v.ShowAlert})
	default:
		return nil, fmt.Errorf("unexpected Request(%T)", c)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// take returns and forgets the recorded calls.
func (f *fakeAPI) take() []outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

func only(calls []outgoing, method string) []outgoing {
	var out []outgoing
	for _, c := range calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func to(calls []outgoing, chatID int64) []outgoing {
	var out []outgoing
	for _, c := range calls {
		if c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

// buttons flattens a keyboard into its callback payloads.
func buttons(kb *tgbotapi.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

type harness struct {
	api   *fakeAPI
	bot   *Bot
	store *repo.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:bot_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if _, err := repo.SeedIfEmpty(context.Background(), db, repo.DefaultCatalog()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st := repo.NewStore(db)
	api := &fakeAPI{failSend: map[int64]error{}}
	f := NewFormatter("", "")
	sessions := session.NewStore(0)
	notify := &services.Dispatcher{Notifier: NewNotifier(api, f), AdminID: adminID}
	catalog := services.NewCatalogService(st, adminID)

	b := New(api, Services{
		Intake: &services.IntakeService{
			Users: st, Orders: st, Catalog: catalog, Sessions: sessions, Notify: notify,
		},
		Admin:   &services.AdminService{Orders: st, Sessions: sessions, Notify: notify, AdminID: adminID},
		Catalog: catalog,
		Account: &services.AccountService{Users: st, Orders: st},
	}, f)
	return &harness{api: api, bot: b, store: st}
}

func (h *harness) itemID(t *testing.T, name string) uint {
	t.Helper()
	var it domain.MenuItem
	if err := h.store.DB.Where("name = ?", name).First(&it).Error; err != nil {
		t.Fatalf("item %q: %v", name, err)
	}
	return it.ID
}

// firstOrder loads the oldest stored order.
func (h *harness) firstOrder(t *testing.T) domain.Order {
	t.Helper()
	var o domain.Order
	if err := h.store.DB.Order("id asc").First(&o).Error; err != nil {
		t.Fatalf("first order: %v", err)
	}
	return o
}

// hasButton reports whether kb carries a button with payload data.
func hasButton(kb *tgbotapi.InlineKeyboardMarkup, data string) bool {
	for _, d := range buttons(kb) {
		if d == data {
			return true
		}
	}
	return false
}

// mustLen fails the test unless calls has exactly n entries.
func mustLen(t *testing.T, calls []outgoing, n int, what string) {
	t.Helper()
	if len(calls) != n {
		t.Fatalf("%s: got %d calls, want %d: %+v", what, len(calls), n, calls)
	}
}

// mustContain fails the test unless text contains want.
func mustContain(t *testing.T, text, want string) {
	t.Helper()
	if !strings.Contains(text, want) {
		t.Fatalf("expected %q in %q", want, text)
	}
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, UserName: fmt.Sprintf("user%d", id), FirstName: "Alice"}
}

func textUpdate(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      user(from),
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}}
}

func commandUpdate(from int64, cmd, args string) tgbotapi.Update {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	u := textUpdate(from, text)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return u
}

func callbackUpdate(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      uuid.NewString(),
		From:    user(from),
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: from}},
		Data:    data,
	}}
}

func (h *harness) do(upd tgbotapi.Update) []outgoing {
	h.bot.HandleUpdate(context.Background(), upd)
	return h.api.take()
}
