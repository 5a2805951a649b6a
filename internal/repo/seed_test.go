package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeedIfEmpty_DefaultCatalog_OnlyOnce(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	seeded, err := SeedIfEmpty(ctx, db, DefaultCatalog())
	if err != nil || !seeded {
		t.Fatalf("first seed = %v, %v", seeded, err)
	}
	rs, _ := ListRestaurants(ctx, db, true)
	if len(rs) != 4 {
		t.Fatalf("expected 4 restaurants, got %d", len(rs))
	}
	items, _ := ListAvailableItems(ctx, db)
	if len(items) != 11 {
		t.Fatalf("expected 11 items, got %d", len(items))
	}

	seeded, err = SeedIfEmpty(ctx, db, DefaultCatalog())
	if err != nil || seeded {
		t.Fatalf("second seed must be a no-op, got %v, %v", seeded, err)
	}
	if n, _ := CountRestaurants(ctx, db); n != 4 {
		t.Fatalf("restaurants duplicated: %d", n)
	}
}

func TestParseMenuMarkdown(t *testing.T) {
	md := `# Campus menu

| Restaurant | Item | Price |
|---|:---:|---:|
| Injera House | Shiro | 120 birr |
| Injera House | Tibs | $180.50 |
| Juice Bar | Avocado Juice | 60 |
| Juice Bar | Broken | n/a |

Some trailing prose.
`
	cat, err := ParseMenuMarkdown(strings.NewReader(md))
	if err != nil {
		t.Fatalf("ParseMenuMarkdown: %v", err)
	}
	if len(cat) != 2 || cat[0].Name != "Injera House" || cat[1].Name != "Juice Bar" {
		t.Fatalf("unexpected restaurants: %+v", cat)
	}
	if len(cat[0].Items) != 2 || cat[0].Items[1].Price != 180.50 {
		t.Fatalf("unexpected items: %+v", cat[0].Items)
	}
	if len(cat[1].Items) != 1 {
		t.Fatalf("bad price row should be skipped: %+v", cat[1].Items)
	}
}

func TestParseMenuMarkdown_NoRows(t *testing.T) {
	if _, err := ParseMenuMarkdown(strings.NewReader("just text\n")); err == nil {
		t.Fatalf("expected error for markdown without table rows")
	}
}

func TestLoadMenuMarkdown_FileAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.md")
	if err := os.WriteFile(path, []byte("| Cafe | Tea | 1.5 |\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadMenuMarkdown(path)
	if err != nil {
		t.Fatalf("LoadMenuMarkdown: %v", err)
	}
	db := newMigratedDB(t)
	if ok, err := SeedIfEmpty(context.Background(), db, cat); err != nil || !ok {
		t.Fatalf("seed from file = %v, %v", ok, err)
	}
	if _, err := LoadMenuMarkdown(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
