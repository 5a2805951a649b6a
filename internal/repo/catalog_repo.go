package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// ListRestaurants returns restaurants ordered by id. When activeOnly is set,
// inactive restaurants are filtered out.
func ListRestaurants(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Restaurant, error) {
	var out []domain.Restaurant
	q := db.WithContext(ctx).Order("id asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetRestaurant fetches a restaurant by id, or ErrNotFound.
func GetRestaurant(ctx context.Context, db *gorm.DB, id uint) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRestaurant inserts an active restaurant. A duplicate name surfaces as
// the raw unique-constraint error.
func CreateRestaurant(ctx context.Context, db *gorm.DB, name string) (*domain.Restaurant, error) {
	r := &domain.Restaurant{Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// CountRestaurants returns the number of restaurants, active or not.
func CountRestaurants(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Restaurant{}).Count(&n).Error
	return n, err
}

// ListMenuItems returns the items of one restaurant ordered by id.
func ListMenuItems(ctx context.Context, db *gorm.DB, restaurantID uint, availableOnly bool) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	q := db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("id asc")
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListAvailableItems returns every available item of every active restaurant
// with its Restaurant preloaded. It feeds the menu search index.
func ListAvailableItems(ctx context.Context, db *gorm.DB) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := db.WithContext(ctx).
		Joins("Restaurant").
		Where("menu_items.is_available = ? AND Restaurant.is_active = ?", true, true).
		Order("menu_items.id asc").
		Find(&out).Error
	return out, err
}

// GetMenuItem fetches an item with its Restaurant preloaded, or ErrNotFound.
func GetMenuItem(ctx context.Context, db *gorm.DB, id uint) (*domain.MenuItem, error) {
	var it domain.MenuItem
	if err := db.WithContext(ctx).Joins("Restaurant").First(&it, "menu_items.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateMenuItem inserts an available item under restaurantID. A missing
// restaurant surfaces as a foreign-key error when PRAGMA foreign_keys is on.
func CreateMenuItem(ctx context.Context, db *gorm.DB, restaurantID uint, name string, price float64) (*domain.MenuItem, error) {
	it := &domain.MenuItem{RestaurantID: restaurantID, Name: name, Price: price, IsAvailable: true}
	if err := db.WithContext(ctx).Omit("Restaurant").Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}
