package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

func TestAccount_RegisterProfileHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := &AccountService{Users: f.store, Orders: f.store}

	if err := acc.Register(ctx, alice, " alice ", "Alice A"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Registering again keeps the original row.
	if err := acc.Register(ctx, alice, "other", "Other"); err != nil {
		t.Fatalf("Register again: %v", err)
	}
	u, err := f.store.GetUser(ctx, alice)
	if err != nil || u.Username != "alice" || u.FullName != "Alice A" {
		t.Fatalf("user: %+v err=%v", u, err)
	}
	if n, _ := f.store.CountUsers(ctx); n != 1 {
		t.Fatalf("users = %d", n)
	}

	// Registered but no phone yet.
	if _, err := acc.Profile(ctx, alice); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("want ErrProfileNotFound, got %v", err)
	}
	if _, err := acc.Profile(ctx, 7); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("unknown user: want ErrProfileNotFound, got %v", err)
	}
	_ = f.store.UpsertProfile(ctx, &domain.User{UserID: alice, FullName: "Alice A", Phone: "0911223344", Dorm: "D", Block: "B"})
	p, err := acc.Profile(ctx, alice)
	if err != nil || p.Phone != "0911223344" {
		t.Fatalf("profile: %+v err=%v", p, err)
	}

	for i, code := range []string{"TAP1001A", "TAP1002A", "TAP1003A"} {
		seedOrder(t, f, code, alice, domain.StatusPending, time.Duration(3-i)*time.Minute)
	}
	seedOrder(t, f, "TAP2001A", 7, domain.StatusPending, 0)

	acc.HistoryLimit = 2
	hist, err := acc.History(ctx, alice)
	if err != nil || len(hist) != 2 || hist[0].OrderCode != "TAP1003A" {
		t.Fatalf("history: %+v err=%v", hist, err)
	}
}
