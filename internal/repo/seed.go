package repo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/tapeat-bot/internal/domain"
)

// SeedItem is one menu line of a seed catalog.
type SeedItem struct {
	Name  string
	Price float64
}

// SeedRestaurant is a restaurant and its items in a seed catalog.
type SeedRestaurant struct {
	Name  string
	Items []SeedItem
}

// DefaultCatalog is the built-in first-start catalog.
func DefaultCatalog() []SeedRestaurant {
	return []SeedRestaurant{
		{Name: "🍕 Pizza Palace", Items: []SeedItem{
			{"Margherita Pizza", 12.99}, {"Pepperoni Pizza", 14.99}, {"Veggie Pizza", 13.99},
		}},
		{Name: "🍔 Burger Joint", Items: []SeedItem{
			{"Cheeseburger", 8.99}, {"Chicken Burger", 9.99}, {"Double Burger", 11.99},
		}},
		{Name: "☕ Coffee Corner", Items: []SeedItem{
			{"Cappuccino", 3.99}, {"Latte", 4.49}, {"Mocha", 4.99},
		}},
		{Name: "🌯 Wrap Station", Items: []SeedItem{
			{"Chicken Wrap", 7.99}, {"Veggie Wrap", 6.99},
		}},
	}
}

// SeedIfEmpty inserts catalog when the restaurants table has no rows. It
// reports whether anything was written. The whole seed runs in one
// transaction so a half-seeded catalog is never visible.
func SeedIfEmpty(ctx context.Context, db *gorm.DB, catalog []SeedRestaurant) (bool, error) {
	seeded := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Restaurant{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := time.Now().UTC()
		for _, sr := range catalog {
			r := &domain.Restaurant{Name: sr.Name, IsActive: true, CreatedAt: now}
			if err := tx.Create(r).Error; err != nil {
				return err
			}
			for _, si := range sr.Items {
				it := &domain.MenuItem{RestaurantID: r.ID, Name: si.Name, Price: si.Price, IsAvailable: true}
				if err := tx.Omit("Restaurant").Create(it).Error; err != nil {
					return err
				}
			}
		}
		seeded = len(catalog) > 0
		return nil
	})
	return seeded, err
}

// LoadMenuMarkdown reads a Markdown menu file. See ParseMenuMarkdown.
func LoadMenuMarkdown(path string) ([]SeedRestaurant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMenuMarkdown(f)
}

// ParseMenuMarkdown flattens Markdown table rows of the form
//
//	| Restaurant | Item | Price |
//
// into a seed catalog. Header and separator rows are skipped, as is any
// row whose price column does not parse. Restaurant order follows first
// appearance. Non-table lines are ignored.
func ParseMenuMarkdown(r io.Reader) ([]SeedRestaurant, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []SeedRestaurant
	pos := map[string]int{}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		cols := strings.Split(strings.Trim(line, "|"), "|")

		allSep := true
		cleaned := make([]string, 0, len(cols))
		for _, c := range cols {
			cell := strings.TrimSpace(c)
			cleaned = append(cleaned, cell)
			tmp := strings.ReplaceAll(cell, ":", "")
			tmp = strings.ReplaceAll(tmp, "-", "")
			if strings.TrimSpace(tmp) != "" {
				allSep = false
			}
		}
		if allSep || len(cleaned) < 3 {
			continue
		}

		rest, item := cleaned[0], cleaned[1]
		price, err := parsePrice(cleaned[2])
		if err != nil || rest == "" || item == "" {
			// header row or junk
			continue
		}

		i, ok := pos[rest]
		if !ok {
			i = len(out)
			pos[rest] = i
			out = append(out, SeedRestaurant{Name: rest})
		}
		out[i].Items = append(out[i].Items, SeedItem{Name: item, Price: price})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("menu markdown: no table rows found")
	}
	return out, nil
}

// parsePrice accepts "12.99", "$12.99", and "12.99 birr".
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if p < 0 {
		return 0, fmt.Errorf("negative price %v", p)
	}
	return p, nil
}
