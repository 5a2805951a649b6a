package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// Store adapts the repository free functions to the store interfaces the
// services consume, binding them to a single *gorm.DB handle. It is safe
// for concurrent use because *gorm.DB is.
type Store struct {
	DB *gorm.DB
}

// NewStore returns a Store over db.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// GetUser proxies GetUser.
func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return GetUser(ctx, s.DB, userID)
}

// EnsureUser proxies EnsureUser.
func (s *Store) EnsureUser(ctx context.Context, u *domain.User) error {
	return EnsureUser(ctx, s.DB, u)
}

// UpsertProfile proxies UpsertProfile.
func (s *Store) UpsertProfile(ctx context.Context, u *domain.User) error {
	return UpsertProfile(ctx, s.DB, u)
}

// CountUsers proxies CountUsers.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return CountUsers(ctx, s.DB)
}

// ListRestaurants proxies ListRestaurants.
func (s *Store) ListRestaurants(ctx context.Context, activeOnly bool) ([]domain.Restaurant, error) {
	return ListRestaurants(ctx, s.DB, activeOnly)
}

// GetRestaurant proxies GetRestaurant.
func (s *Store) GetRestaurant(ctx context.Context, id uint) (*domain.Restaurant, error) {
	return GetRestaurant(ctx, s.DB, id)
}

// CreateRestaurant proxies CreateRestaurant.
func (s *Store) CreateRestaurant(ctx context.Context, name string) (*domain.Restaurant, error) {
	return CreateRestaurant(ctx, s.DB, name)
}

// ListMenuItems proxies ListMenuItems.
func (s *Store) ListMenuItems(ctx context.Context, restaurantID uint, availableOnly bool) ([]domain.MenuItem, error) {
	return ListMenuItems(ctx, s.DB, restaurantID, availableOnly)
}

// ListAvailableItems proxies ListAvailableItems.
func (s *Store) ListAvailableItems(ctx context.Context) ([]domain.MenuItem, error) {
	return ListAvailableItems(ctx, s.DB)
}

// GetMenuItem proxies GetMenuItem.
func (s *Store) GetMenuItem(ctx context.Context, id uint) (*domain.MenuItem, error) {
	return GetMenuItem(ctx, s.DB, id)
}

// CreateMenuItem proxies CreateMenuItem.
func (s *Store) CreateMenuItem(ctx context.Context, restaurantID uint, name string, price float64) (*domain.MenuItem, error) {
	return CreateMenuItem(ctx, s.DB, restaurantID, name, price)
}

// InsertOrder proxies InsertOrder.
func (s *Store) InsertOrder(ctx context.Context, o *domain.Order) error {
	return InsertOrder(ctx, s.DB, o)
}

// GetOrder proxies GetOrder.
func (s *Store) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return GetOrder(ctx, s.DB, id)
}

// UpdateOrderStatus proxies UpdateOrderStatus.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error {
	return UpdateOrderStatus(ctx, s.DB, id, from, to)
}

// ListOrders proxies ListOrders.
func (s *Store) ListOrders(ctx context.Context, f domain.OrderFilter, limit int) ([]domain.Order, error) {
	return ListOrders(ctx, s.DB, f, limit)
}

// DeleteAllOrders proxies DeleteAllOrders.
func (s *Store) DeleteAllOrders(ctx context.Context) (int64, error) {
	return DeleteAllOrders(ctx, s.DB)
}

// AggregateStats proxies AggregateStats.
func (s *Store) AggregateStats(ctx context.Context) (domain.Stats, error) {
	return AggregateStats(ctx, s.DB)
}

// Ping checks that the underlying connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
