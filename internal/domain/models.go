// Package domain defines the persistence models for users, restaurants, menu
// items, and orders. These types are mapped with GORM and form the core data
// layer of the TAP&EAT bot.
package domain

import "time"

// User is a customer known to the bot. The primary key is the numeric
// Telegram user id. Rows are created on first contact and updated whenever
// an intake flow completes; they are never deleted.
//
// Fields:
//   - UserID: Telegram user id (primary key).
//   - Username: Telegram @handle, may be empty.
//   - FullName, Phone, Dorm, Block, Room: delivery profile. Phone is either
//     empty or a digit string of length >= 10. Room may be empty.
//   - CreatedAt: first contact time.
type User struct {
	UserID    int64     `json:"user_id"   gorm:"primaryKey;autoIncrement:false"`
	Username  string    `json:"username"  gorm:"type:varchar(64)"`
	FullName  string    `json:"full_name" gorm:"type:varchar(128)"`
	Phone     string    `json:"-"         gorm:"type:varchar(32)"`
	Dorm      string    `json:"dorm"      gorm:"type:varchar(64)"`
	Block     string    `json:"block"     gorm:"type:varchar(64)"`
	Room      string    `json:"room"      gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// HasPhone reports whether the stored profile is complete enough to skip
// the intake questions.
func (u *User) HasPhone() bool { return u != nil && u.Phone != "" }

// Restaurant is a vendor on the campus catalog. Names are unique.
type Restaurant struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(128);not null;uniqueIndex"`
	IsActive  bool      `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Restaurant.
func (Restaurant) TableName() string { return "restaurants" }

// MenuItem belongs to exactly one restaurant.
type MenuItem struct {
	ID           uint    `json:"id"            gorm:"primaryKey"`
	RestaurantID uint    `json:"restaurant_id" gorm:"not null;index"`
	Name         string  `json:"name"          gorm:"type:varchar(128);not null"`
	Price        float64 `json:"price"         gorm:"not null;check:price >= 0"`
	IsAvailable  bool    `json:"is_available"  gorm:"not null;default:true"`

	// Restaurant is the owning vendor. Items are cascade-deleted with it.
	Restaurant Restaurant `json:"-" gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MenuItem.
func (MenuItem) TableName() string { return "menu_items" }

// Order is a confirmed customer order. Restaurant, food, and delivery fields
// are copied at creation time so later catalog or profile edits do not
// rewrite history.
type Order struct {
	ID             uint        `json:"id"              gorm:"primaryKey"`
	OrderCode      string      `json:"order_code"      gorm:"type:varchar(16);not null;uniqueIndex"`
	UserID         int64       `json:"user_id"         gorm:"not null;index"`
	RestaurantName string      `json:"restaurant_name" gorm:"type:varchar(128)"`
	FoodName       string      `json:"food_name"       gorm:"type:varchar(128);not null"`
	Quantity       int         `json:"quantity"        gorm:"not null;check:quantity > 0"`
	TotalPrice     float64     `json:"total_price"     gorm:"not null"`
	CustomerName   string      `json:"customer_name"   gorm:"type:varchar(128)"`
	Phone          string      `json:"-"               gorm:"type:varchar(32)"`
	Dorm           string      `json:"dorm"            gorm:"type:varchar(64)"`
	Block          string      `json:"block"           gorm:"type:varchar(64)"`
	Room           string      `json:"room"            gorm:"type:varchar(64)"`
	Status         OrderStatus `json:"status"          gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt      time.Time   `json:"created_at"      gorm:"index"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	UserID int64
	Status OrderStatus
	// OldestFirst flips the default newest-first ordering.
	OldestFirst bool
}

// Stats is the aggregate snapshot shown to the administrator and exposed by
// the ops HTTP surface. Revenue only counts delivered orders.
type Stats struct {
	Users       int64   `json:"users"`
	Restaurants int64   `json:"restaurants"`
	Orders      int64   `json:"orders"`
	Pending     int64   `json:"pending"`
	Delivered   int64   `json:"delivered"`
	Revenue     float64 `json:"revenue"`
}
