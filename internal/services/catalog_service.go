// Package services – CatalogService
//
// This file implements CatalogService, which serves restaurants and menus to
// the bot, resolves free-text food names for quick orders, runs menu search,
// and lets the administrator add restaurants and items. The search index is
// built lazily from the store and rebuilt after any admin catalog write.
package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/search"
)

// menuStopwords are ignored when matching food names.
var menuStopwords = []string{"a", "an", "the", "with", "and", "of", "please"}

// CatalogService exposes the restaurant catalog.
type CatalogService struct {
	Store   CatalogStore
	AdminID int64

	// ResolveThreshold is the minimum Jaccard score for a fuzzy food match.
	ResolveThreshold float64

	mu    sync.RWMutex
	idx   search.Index
	items map[uint]domain.MenuItem
}

// NewCatalogService returns a CatalogService with default matching settings.
func NewCatalogService(store CatalogStore, adminID int64) *CatalogService {
	return &CatalogService{Store: store, AdminID: adminID, ResolveThreshold: 0.34}
}

// Restaurants lists active restaurants.
func (s *CatalogService) Restaurants(ctx context.Context) ([]domain.Restaurant, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Restaurants")
	defer span.End()
	return s.Store.ListRestaurants(ctx, true)
}

// Menu returns an active restaurant and its available items.
func (s *CatalogService) Menu(ctx context.Context, restaurantID uint) (*domain.Restaurant, []domain.MenuItem, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Menu",
		trace.WithAttributes(attribute.Int64("restaurant.id", int64(restaurantID))),
	)
	defer span.End()

	r, err := s.Store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrRestaurantNotFound
		}
		return nil, nil, err
	}
	if !r.IsActive {
		return nil, nil, ErrRestaurantNotFound
	}
	items, err := s.Store.ListMenuItems(ctx, restaurantID, true)
	if err != nil {
		return nil, nil, err
	}
	return r, items, nil
}

// Item returns an available menu item with its restaurant.
func (s *CatalogService) Item(ctx context.Context, itemID uint) (*domain.MenuItem, error) {
	it, err := s.Store.GetMenuItem(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if !it.IsAvailable || !it.Restaurant.IsActive {
		return nil, ErrItemNotFound
	}
	return it, nil
}

// Search returns up to k available items ranked by name similarity.
func (s *CatalogService) Search(ctx context.Context, query string, k int) ([]domain.MenuItem, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	idx, items, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	res := idx.TopK(query, k)
	out := make([]domain.MenuItem, 0, len(res))
	for _, r := range res {
		if it, ok := items[r.ID]; ok {
			out = append(out, it)
		}
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// Resolve maps a typed food name onto one menu item. An exact
// case-insensitive name match wins; otherwise the best search hit is used
// when it clears ResolveThreshold.
func (s *CatalogService) Resolve(ctx context.Context, name string) (*domain.MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrItemNotFound
	}
	idx, items, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	want := keyword(name)
	var exact *domain.MenuItem
	for id := range items {
		it := items[id]
		if keyword(it.Name) == want && (exact == nil || it.ID < exact.ID) {
			exact = &it
		}
	}
	if exact != nil {
		return exact, nil
	}
	res := idx.TopK(name, 1)
	if len(res) == 0 || res[0].Score < s.ResolveThreshold {
		return nil, ErrItemNotFound
	}
	it := items[res[0].ID]
	return &it, nil
}

// AddRestaurant creates an active restaurant. Admin only.
func (s *CatalogService) AddRestaurant(ctx context.Context, callerID int64, name string) (*domain.Restaurant, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "AddRestaurant")
	defer span.End()

	if !isAdmin(s.AdminID, callerID) {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	r, err := s.Store.CreateRestaurant(ctx, name)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateRestaurant
		}
		return nil, err
	}
	s.invalidate()
	return r, nil
}

// AddMenuItem adds an item to an existing restaurant. Admin only.
func (s *CatalogService) AddMenuItem(ctx context.Context, callerID int64, restaurantID uint, name string, price float64) (*domain.MenuItem, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "AddMenuItem",
		trace.WithAttributes(attribute.Int64("restaurant.id", int64(restaurantID))),
	)
	defer span.End()

	if !isAdmin(s.AdminID, callerID) {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrInvalidPrice
	}
	if _, err := s.Store.GetRestaurant(ctx, restaurantID); err != nil {
		if isNotFound(err) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	it, err := s.Store.CreateMenuItem(ctx, restaurantID, name, price)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return it, nil
}

func (s *CatalogService) invalidate() {
	s.mu.Lock()
	s.idx, s.items = nil, nil
	s.mu.Unlock()
}

// index returns the cached search index, building it on first use.
func (s *CatalogService) index(ctx context.Context) (search.Index, map[uint]domain.MenuItem, error) {
	s.mu.RLock()
	idx, items := s.idx, s.items
	s.mu.RUnlock()
	if idx != nil {
		return idx, items, nil
	}

	all, err := s.Store.ListAvailableItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load menu for search: %w", err)
	}
	docs := make([]search.Doc, 0, len(all))
	items = make(map[uint]domain.MenuItem, len(all))
	for _, it := range all {
		items[it.ID] = it
		docs = append(docs, search.Doc{ID: it.ID, Text: it.Name})
	}
	idx = search.NewIndex(docs, search.WithStopwords(menuStopwords))

	s.mu.Lock()
	s.idx, s.items = idx, items
	s.mu.Unlock()
	return idx, items, nil
}

// isAdmin reports whether callerID is the configured administrator. With no
// administrator configured nobody is.
func isAdmin(adminID, callerID int64) bool {
	return adminID != 0 && callerID == adminID
}

