package repo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

func TestAggregateStats_Empty(t *testing.T) {
	db := newMigratedDB(t)
	s, err := AggregateStats(context.Background(), db)
	if err != nil {
		t.Fatalf("AggregateStats: %v", err)
	}
	if s != (domain.Stats{}) {
		t.Fatalf("expected zero stats, got %+v", s)
	}
}

func TestAggregateStats_CountsAndDeliveredRevenue(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	_ = EnsureUser(ctx, db, &domain.User{UserID: 1})
	_ = EnsureUser(ctx, db, &domain.User{UserID: 2})
	_, _ = CreateRestaurant(ctx, db, "A")

	now := time.Now().UTC()
	orders := []*domain.Order{
		{OrderCode: "TAP0001A", UserID: 1, FoodName: "x", Quantity: 1, TotalPrice: 10.50, Status: domain.StatusDelivered, CreatedAt: now},
		{OrderCode: "TAP0002A", UserID: 1, FoodName: "x", Quantity: 1, TotalPrice: 4.25, Status: domain.StatusDelivered, CreatedAt: now},
		{OrderCode: "TAP0003A", UserID: 2, FoodName: "x", Quantity: 1, TotalPrice: 99, Status: domain.StatusPending, CreatedAt: now},
		{OrderCode: "TAP0004A", UserID: 2, FoodName: "x", Quantity: 1, TotalPrice: 50, Status: domain.StatusRejected, CreatedAt: now},
	}
	for _, o := range orders {
		if err := InsertOrder(ctx, db, o); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s, err := AggregateStats(ctx, db)
	if err != nil {
		t.Fatalf("AggregateStats: %v", err)
	}
	if s.Users != 2 || s.Restaurants != 1 || s.Orders != 4 || s.Pending != 1 || s.Delivered != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if math.Abs(s.Revenue-14.75) > 1e-9 {
		t.Fatalf("revenue = %v; want 14.75", s.Revenue)
	}
}

func TestAggregateStats_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := AggregateStats(context.Background(), db); err == nil {
		t.Fatalf("expected error when tables are missing")
	}
}
