package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

var now = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func seedMemberships(t *testing.T, r *CartRepository, owners []string, itemID string) {
	t.Helper()
	for _, o := range owners {
		m, err := cartdom.NewMembership(o, itemID, now)
		require.NoError(t, err)
		created, err := r.CreateIfAbsent(context.Background(), m)
		require.NoError(t, err)
		require.True(t, created)
	}
}

func TestCartRepository_CreateIfAbsent(t *testing.T) {
	r := NewStore().Carts()
	m, _ := cartdom.NewMembership("u1", "i1", now)

	created, err := r.CreateIfAbsent(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.CreateIfAbsent(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, created)

	n, _ := r.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestCartRepository_ScanToleratesDeletes(t *testing.T) {
	r := NewStore().Carts()
	seedMemberships(t, r, []string{"a", "b", "c", "d", "e"}, "i1")

	var seen []string
	err := r.Scan(context.Background(), 2, func(page []cartdom.Membership) error {
		assert.LessOrEqual(t, len(page), 2)
		for _, m := range page {
			seen = append(seen, m.ID)
		}
		_, err := r.DeleteBatch(context.Background(), cartdom.IDs(page))
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a__i1", "b__i1", "c__i1", "d__i1", "e__i1"}, seen)
	n, _ := r.Count(context.Background())
	assert.Equal(t, 0, n)
}

func TestCartRepository_DeleteBatch(t *testing.T) {
	r := NewStore().Carts()
	seedMemberships(t, r, []string{"a", "b"}, "i1")

	n, err := r.DeleteBatch(context.Background(), []string{"a__i1", "zz__i1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.DeleteBatch(context.Background(), make([]string, cartdom.MaxBatchSize+1))
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestItemRepository_RecordSaleIsAtomic(t *testing.T) {
	s := NewStore()
	items := s.Items()
	it, err := itemdom.NewDraft("i1", "seller", itemdom.Details{
		Title: "Desk", Location: "Dorm B", Price: 3000,
		Condition: itemdom.ConditionFair, Category: itemdom.CategoryFurniture,
	}, now)
	require.NoError(t, err)
	it.Status = itemdom.StatusForSale
	_, err = items.Create(context.Background(), it)
	require.NoError(t, err)

	build := func(sold itemdom.Item) (purchasedom.Purchase, error) {
		return purchasedom.New(sold.ID, "buyer", "", sold.SellerID, sold.Title, sold.Price, now)
	}
	mutate := func(cur *itemdom.Item) error { return cur.MarkSold("buyer", "", now) }

	_, p, err := items.RecordSale(context.Background(), "i1", mutate, build)
	require.NoError(t, err)
	assert.Equal(t, "i1", p.ID)

	_, _, err = items.RecordSale(context.Background(), "i1", mutate, build)
	assert.ErrorIs(t, err, purchasedom.ErrAlreadyExists)

	n, _ := s.Purchases().Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestItemRepository_DeleteGuard(t *testing.T) {
	s := NewStore()
	items := s.Items()
	it, err := itemdom.NewDraft("i1", "seller", itemdom.Details{
		Title: "Desk", Location: "Dorm B", Price: 3000,
		Condition: itemdom.ConditionFair, Category: itemdom.CategoryFurniture,
	}, now)
	require.NoError(t, err)
	_, err = items.Create(context.Background(), it)
	require.NoError(t, err)

	err = items.Delete(context.Background(), "i1", func(cur itemdom.Item) error { return itemdom.ErrImmutable })
	assert.ErrorIs(t, err, itemdom.ErrImmutable)
	_, err = items.GetByID(context.Background(), "i1")
	assert.NoError(t, err)

	require.NoError(t, items.Delete(context.Background(), "i1", nil))
	_, err = items.GetByID(context.Background(), "i1")
	assert.ErrorIs(t, err, itemdom.ErrNotFound)
}

func TestItemRepository_DeleteRefusesPurchasedItem(t *testing.T) {
	s := NewStore()
	items := s.Items()
	it, err := itemdom.NewDraft("i1", "seller", itemdom.Details{
		Title: "Desk", Location: "Dorm B", Price: 3000,
		Condition: itemdom.ConditionFair, Category: itemdom.CategoryFurniture,
	}, now)
	require.NoError(t, err)
	it.Status = itemdom.StatusForSale
	_, err = items.Create(context.Background(), it)
	require.NoError(t, err)

	_, _, err = items.RecordSale(context.Background(), "i1",
		func(cur *itemdom.Item) error { return cur.MarkSold("buyer", "", now) },
		func(sold itemdom.Item) (purchasedom.Purchase, error) {
			return purchasedom.New(sold.ID, "buyer", "", sold.SellerID, sold.Title, sold.Price, now)
		})
	require.NoError(t, err)
	_, err = items.Update(context.Background(), "i1", func(cur *itemdom.Item) error {
		_, err := cur.Withdraw(true, now)
		return err
	})
	require.NoError(t, err)

	err = items.Delete(context.Background(), "i1", nil)

	assert.ErrorIs(t, err, itemdom.ErrPurchased)
	_, err = items.GetByID(context.Background(), "i1")
	assert.NoError(t, err)
}
