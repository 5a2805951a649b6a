// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// profileColumns are overwritten when an intake flow completes.
var profileColumns = []string{"phone", "full_name", "dorm", "block", "room"}

// GetUser fetches a user by Telegram id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser inserts the user if absent and leaves an existing row untouched.
// It is called on /start so the user count reflects everyone who has talked
// to the bot.
func EnsureUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error
}

// UpsertProfile inserts the user or, when the row exists, overwrites the five
// delivery profile fields. Username and CreatedAt are preserved on update.
func UpsertProfile(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).
		Create(u).Error
}

// CountUsers returns the total number of known users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}
