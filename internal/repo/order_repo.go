// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order model.
//
// The repository is "thin": it performs persistence and query composition and
// leaves lifecycle rules (who may change a status, which transitions are
// legal) to the services package.
//
// Error semantics:
//   - A duplicate order code is returned as the raw unique-constraint error;
//     the service layer detects it and retries with a fresh code.
//   - UpdateOrderStatus returns ErrNotFound when no row matched, which covers
//     both a missing order and a status that changed underneath the caller.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// InsertOrder persists o. CreatedAt defaults to now (UTC) and Status to
// pending when unset. On success o.ID is populated.
func InsertOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = domain.StatusPending
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder fetches an order by id, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus moves order id from status from to status to. The update
// is conditional on the current status so two racing admin actions cannot
// both apply.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, from, to domain.OrderStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOrders returns up to limit orders matching f, newest first unless
// f.OldestFirst is set. A limit <= 0 means no limit.
func ListOrders(ctx context.Context, db *gorm.DB, f domain.OrderFilter, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := db.WithContext(ctx)
	if f.OldestFirst {
		q = q.Order("created_at asc").Order("id asc")
	} else {
		q = q.Order("created_at desc").Order("id desc")
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// DeleteAllOrders removes every order row and reports how many were removed.
func DeleteAllOrders(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Order{})
	return res.RowsAffected, res.Error
}
