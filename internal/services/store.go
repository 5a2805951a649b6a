package services

import (
	"context"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// UserStore persists customers and their delivery profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	// EnsureUser inserts the user if absent and never overwrites.
	EnsureUser(ctx context.Context, u *domain.User) error
	// UpsertProfile inserts the user or overwrites the five profile fields.
	UpsertProfile(ctx context.Context, u *domain.User) error
	CountUsers(ctx context.Context) (int64, error)
}

// CatalogStore persists restaurants and menu items.
type CatalogStore interface {
	ListRestaurants(ctx context.Context, activeOnly bool) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id uint) (*domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, name string) (*domain.Restaurant, error)
	ListMenuItems(ctx context.Context, restaurantID uint, availableOnly bool) ([]domain.MenuItem, error)
	// ListAvailableItems returns available items of active restaurants with
	// Restaurant populated.
	ListAvailableItems(ctx context.Context) ([]domain.MenuItem, error)
	// GetMenuItem returns the item with Restaurant populated.
	GetMenuItem(ctx context.Context, id uint) (*domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, restaurantID uint, name string, price float64) (*domain.MenuItem, error)
}

// OrderStore persists orders.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id uint) (*domain.Order, error)
	// UpdateOrderStatus applies only while the row still has status from.
	UpdateOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error
	ListOrders(ctx context.Context, f domain.OrderFilter, limit int) ([]domain.Order, error)
	DeleteAllOrders(ctx context.Context) (int64, error)
	AggregateStats(ctx context.Context) (domain.Stats, error)
}

// Store is everything the services need from persistence. *repo.Store
// satisfies it.
type Store interface {
	UserStore
	CatalogStore
	OrderStore
}
