package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/tapeat-bot/internal/domain"
	"github.com/tbourn/tapeat-bot/internal/repo"
	"github.com/tbourn/tapeat-bot/internal/session"
)

// ---------- test helpers ----------

// newSvcStore opens a private in-memory database, migrates it, and seeds the
// default catalog.
func newSvcStore(t *testing.T) *repo.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if _, err := repo.SeedIfEmpty(context.Background(), db, repo.DefaultCatalog()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo.NewStore(db)
}

// itemID looks up a seeded item by exact name.
func itemID(t *testing.T, st *repo.Store, name string) uint {
	t.Helper()
	var it domain.MenuItem
	if err := st.DB.Where("name = ?", name).First(&it).Error; err != nil {
		t.Fatalf("item %q: %v", name, err)
	}
	return it.ID
}

type sentStatus struct {
	OrderID uint
	Status  domain.OrderStatus
}

// fakeNotifier records deliveries and fails on demand.
type fakeNotifier struct {
	mu          sync.Mutex
	adminOrders []string
	statuses    []sentStatus
	failAdmin   error
	failStatus  error
}

func (f *fakeNotifier) SendAdminOrder(_ context.Context, _ int64, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdmin != nil {
		return f.failAdmin
	}
	f.adminOrders = append(f.adminOrders, o.OrderCode)
	return nil
}

func (f *fakeNotifier) SendCustomerStatus(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStatus != nil {
		return f.failStatus
	}
	f.statuses = append(f.statuses, sentStatus{o.ID, o.Status})
	return nil
}

const testAdmin int64 = 999

type fixture struct {
	store    *repo.Store
	sessions *session.Store
	notifier *fakeNotifier
	catalog  *CatalogService
	intake   *IntakeService
	admin    *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newSvcStore(t)
	sessions := session.NewStore(0)
	n := &fakeNotifier{}
	d := &Dispatcher{Notifier: n, AdminID: testAdmin}
	cat := NewCatalogService(st, testAdmin)
	return &fixture{
		store:    st,
		sessions: sessions,
		notifier: n,
		catalog:  cat,
		intake: &IntakeService{
			Users: st, Orders: st, Catalog: cat, Sessions: sessions, Notify: d,
		},
		admin: &AdminService{
			Orders: st, Sessions: sessions, Notify: d, AdminID: testAdmin,
		},
	}
}

var errBoom = errors.New("boom")

// flakyUsers wraps a UserStore and fails UpsertProfile while fail is set.
type flakyUsers struct {
	UserStore
	fail bool
}

func (f *flakyUsers) UpsertProfile(ctx context.Context, u *domain.User) error {
	if f.fail {
		return errBoom
	}
	return f.UserStore.UpsertProfile(ctx, u)
}

// dupOrders reports a unique violation for the first n inserts.
type dupOrders struct {
	OrderStore
	n     int
	calls int
	err   error
}

func (d *dupOrders) InsertOrder(ctx context.Context, o *domain.Order) error {
	d.calls++
	if d.err != nil {
		return d.err
	}
	if d.calls <= d.n {
		return gorm.ErrDuplicatedKey
	}
	return d.OrderStore.InsertOrder(ctx, o)
}
