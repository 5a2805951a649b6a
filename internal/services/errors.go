// Package services defines the business logic of the TAP&EAT bot: the order
// intake workflow, admin order management, catalog, and account use-cases.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages should be performed at the bot/handler layer.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/repo"
)

// Catalog errors.
var (
	// ErrItemNotFound indicates a stale or unknown menu item id, or an item
	// that is no longer available.
	ErrItemNotFound = errors.New("menu item not found")

	// ErrRestaurantNotFound indicates a stale or unknown restaurant id.
	ErrRestaurantNotFound = errors.New("restaurant not found")

	// ErrDuplicateRestaurant is returned when adding a restaurant whose name
	// is already taken.
	ErrDuplicateRestaurant = errors.New("restaurant already exists")

	// ErrEmptyName is returned when a restaurant or item name is blank.
	ErrEmptyName = errors.New("name is empty")

	// ErrInvalidPrice is returned for negative or unparsable prices.
	ErrInvalidPrice = errors.New("price must be a non-negative number")
)

// Intake errors.
var (
	// ErrInvalidQuantity is returned when a quantity is outside the allowed range.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrNoActiveSession is returned by confirm when there is nothing to
	// confirm, e.g. a duplicate confirm after the order was placed.
	ErrNoActiveSession = errors.New("no active order session")

	// ErrOrderCodeExhausted is returned when every generated order code
	// collided with an existing one.
	ErrOrderCodeExhausted = errors.New("could not allocate a unique order code")

	// ErrMalformedOrder is returned by ParseQuickOrder for text that is not a
	// structured order block.
	ErrMalformedOrder = errors.New("malformed quick order")

	// ErrProfileNotFound indicates the user has never saved a delivery profile.
	ErrProfileNotFound = errors.New("profile not found")
)

// Admin errors.
var (
	// ErrForbidden is returned when a non-admin invokes an admin-only action.
	ErrForbidden = errors.New("admin only")

	// ErrOrderNotFound indicates a stale or unknown order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when the requested status change is
	// not allowed from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoPendingOrder is returned when the review queue is empty.
	ErrNoPendingOrder = errors.New("no pending orders")
)

// Notification errors.
var (
	// ErrNoAdmin is recorded when no administrator identity is configured.
	ErrNoAdmin = errors.New("no administrator configured")
)

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
