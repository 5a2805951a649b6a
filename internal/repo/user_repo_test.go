package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

func TestGetUser_NotFound(t *testing.T) {
	db := newMigratedDB(t)
	_, err := GetUser(context.Background(), db, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureUser_InsertsOnce_AndKeepsExisting(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if err := EnsureUser(ctx, db, &domain.User{UserID: 7, Username: "alice", FullName: "Alice"}); err != nil {
		t.Fatalf("EnsureUser first: %v", err)
	}
	// Second call with different data must not overwrite.
	if err := EnsureUser(ctx, db, &domain.User{UserID: 7, Username: "bob", FullName: "Bob"}); err != nil {
		t.Fatalf("EnsureUser second: %v", err)
	}
	u, err := GetUser(ctx, db, 7)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Username != "alice" || u.FullName != "Alice" {
		t.Fatalf("existing row was modified: %+v", u)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
	n, err := CountUsers(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("CountUsers = %d, %v; want 1", n, err)
	}
}

func TestUpsertProfile_InsertThenUpdateAllFiveFields(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if err := EnsureUser(ctx, db, &domain.User{UserID: 9, Username: "carol"}); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	first := &domain.User{UserID: 9, FullName: "Carol", Phone: "0123456789", Dorm: "Dorm 5", Block: "B", Room: "12"}
	if err := UpsertProfile(ctx, db, first); err != nil {
		t.Fatalf("UpsertProfile first: %v", err)
	}
	second := &domain.User{UserID: 9, FullName: "Carol K", Phone: "0987654321", Dorm: "Dorm 1", Block: "A", Room: ""}
	if err := UpsertProfile(ctx, db, second); err != nil {
		t.Fatalf("UpsertProfile second: %v", err)
	}

	u, err := GetUser(ctx, db, 9)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FullName != "Carol K" || u.Phone != "0987654321" || u.Dorm != "Dorm 1" || u.Block != "A" || u.Room != "" {
		t.Fatalf("profile not overwritten: %+v", u)
	}
	if u.Username != "carol" {
		t.Fatalf("username should be preserved on update, got %q", u.Username)
	}

	// Insert path: no prior row.
	if err := UpsertProfile(ctx, db, &domain.User{UserID: 10, FullName: "Dan", Phone: "1112223334"}); err != nil {
		t.Fatalf("UpsertProfile insert: %v", err)
	}
	if u, err := GetUser(ctx, db, 10); err != nil || u.Phone != "1112223334" {
		t.Fatalf("inserted profile missing: %+v %v", u, err)
	}
}

func TestUserRepo_ErrorNoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if err := UpsertProfile(context.Background(), db, &domain.User{UserID: 1}); err == nil {
		t.Fatalf("expected error when users table is missing")
	}
	if _, err := CountUsers(context.Background(), db); err == nil {
		t.Fatalf("expected count error when users table is missing")
	}
}
