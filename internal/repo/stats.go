// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate counts shown to the
// administrator and exposed on the ops HTTP surface.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// AggregateStats returns users, restaurants, orders, pending and delivered
// counts, and the revenue summed over delivered orders.
//
// It executes a handful of lightweight COUNT/SUM queries; each is a single
// table read so no transaction is needed.
func AggregateStats(ctx context.Context, db *gorm.DB) (domain.Stats, error) {
	var s domain.Stats
	q := db.WithContext(ctx)

	if err := q.Model(&domain.User{}).Count(&s.Users).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := q.Model(&domain.Restaurant{}).Count(&s.Restaurants).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := q.Model(&domain.Order{}).Count(&s.Orders).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := q.Model(&domain.Order{}).Where("status = ?", domain.StatusPending).Count(&s.Pending).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := q.Model(&domain.Order{}).Where("status = ?", domain.StatusDelivered).Count(&s.Delivered).Error; err != nil {
		return domain.Stats{}, err
	}

	// COALESCE keeps the scan target numeric when there are no delivered rows.
	var row struct{ Revenue float64 }
	if err := q.Model(&domain.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue").
		Where("status = ?", domain.StatusDelivered).
		Scan(&row).Error; err != nil {
		return domain.Stats{}, err
	}
	s.Revenue = row.Revenue
	return s, nil
}
