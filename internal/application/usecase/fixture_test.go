package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusmarket/internal/adapters/out/memory"
	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
)

var (
	seller = userdom.Identity{Subject: "seller-s", Email: "s@campus.edu"}
	alice  = userdom.Identity{Subject: "buyer-a", Email: "a@campus.edu"}
	bob    = userdom.Identity{Subject: "buyer-b", Email: "b@campus.edu"}
	carol  = userdom.Identity{Subject: "buyer-c", Email: "c@campus.edu"}
	admin  = userdom.Identity{Subject: "admin-1", Email: "ops@campus.edu", Admin: true}
	anon   = userdom.Identity{}
)

var errStoreDown = errors.New("store unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// faultyCarts wraps a cart repository and fails selected calls.
type faultyCarts struct {
	cartdom.Repository

	mu        sync.Mutex
	deleteErr error
	listErr   error
}

func (f *faultyCarts) failDeletes(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr = err
}

func (f *faultyCarts) failLists(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *faultyCarts) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	err := f.deleteErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.Repository.DeleteBatch(ctx, ids)
}

func (f *faultyCarts) ListByItem(ctx context.Context, itemID string) ([]cartdom.Membership, error) {
	f.mu.Lock()
	err := f.listErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Repository.ListByItem(ctx, itemID)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendReceipt(ctx context.Context, p purchasedom.Purchase) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	items     *memory.ItemRepository
	carts     *faultyCarts
	purchases *memory.PurchaseRepository
	clock     *fakeClock
	notifier  *mockNotifier
	directory *mockDirectory

	engine    *CartConsistencyUsecase
	lifecycle *ItemLifecycleUsecase
	checkout  *CheckoutUsecase
	payment   *PaymentUsecase
	admin     *AdminUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		ctx:       context.Background(),
		store:     store,
		items:     store.Items(),
		carts:     &faultyCarts{Repository: store.Carts()},
		purchases: store.Purchases(),
		clock:     &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
		notifier:  &mockNotifier{},
		directory: &mockDirectory{},
	}
	f.notifier.On("SendReceipt", mock.Anything, mock.Anything).Return(nil).Maybe()

	logger := zap.NewNop()
	f.engine = NewCartConsistencyUsecase(f.items, f.carts, logger)
	f.lifecycle = NewItemLifecycleUsecase(ItemLifecycleDeps{
		Items:    f.items,
		Sales:    f.items,
		Carts:    f.carts,
		Purger:   f.engine,
		Notifier: f.notifier,
		Clock:    f.clock,
		Logger:   logger,
	})
	f.checkout = NewCheckoutUsecase(f.carts, f.items, f.purchases, f.engine, logger)
	f.payment = NewPaymentUsecase(f.lifecycle, f.purchases, f.engine, logger)
	f.admin = NewAdminUsecase(AdminDeps{
		Items:     f.items,
		Carts:     f.carts,
		Purchases: f.purchases,
		Engine:    f.engine,
		Lifecycle: f.lifecycle,
		Directory: f.directory,
		Logger:    logger,
	})
	return f
}

func details(title string, price int) itemdom.Details {
	return itemdom.Details{
		Title:     title,
		Location:  "Student union",
		Price:     price,
		Condition: itemdom.ConditionUsed,
		Category:  itemdom.CategoryBooks,
	}
}

// draft creates a draft listing owned by owner.
func (f *fixture) draft(t *testing.T, owner userdom.Identity, title string) itemdom.Item {
	t.Helper()
	it, err := f.lifecycle.CreateItem(f.ctx, owner, details(title, 1200))
	require.NoError(t, err)
	return it
}

// listed creates a for-sale listing owned by owner.
func (f *fixture) listed(t *testing.T, owner userdom.Identity, title string) itemdom.Item {
	t.Helper()
	it := f.draft(t, owner, title)
	res, err := f.lifecycle.Publish(f.ctx, owner, it.ID)
	require.NoError(t, err)
	require.Equal(t, itemdom.StatusForSale, res.Item.Status)
	return res.Item
}

func (f *fixture) addToCart(t *testing.T, who userdom.Identity, itemID string) cartdom.Membership {
	t.Helper()
	res, err := f.lifecycle.AddToCart(f.ctx, who, itemID)
	require.NoError(t, err)
	return res.Membership
}

func (f *fixture) membershipsForItem(t *testing.T, itemID string) []cartdom.Membership {
	t.Helper()
	ms, err := f.store.Carts().ListByItem(f.ctx, itemID)
	require.NoError(t, err)
	return ms
}

func (f *fixture) membershipsForOwner(t *testing.T, ownerID string) []cartdom.Membership {
	t.Helper()
	ms, err := f.store.Carts().ListByOwner(f.ctx, ownerID)
	require.NoError(t, err)
	return ms
}

func (f *fixture) status(t *testing.T, itemID string) itemdom.Status {
	t.Helper()
	it, err := f.items.GetByID(f.ctx, itemID)
	require.NoError(t, err)
	return it.Status
}
