package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
)

func TestPurges_EmptySetIsNoop(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.PurgeByItem(f.ctx, "nothing-here")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)

	res, err = f.engine.PurgeByOwner(f.ctx, alice.Subject)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)

	res, err = f.engine.PurgeByIDs(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)

	rep, err := f.engine.GlobalSweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{}, rep)
}

func TestPurgeByItem_RemovesAllOwners(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	y := f.listed(t, seller, "Y")
	f.addToCart(t, alice, x.ID)
	f.addToCart(t, bob, x.ID)
	f.addToCart(t, alice, y.ID)

	res, err := f.engine.PurgeByItem(f.ctx, x.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
	assert.Empty(t, f.membershipsForItem(t, x.ID))
	assert.Len(t, f.membershipsForItem(t, y.ID), 1)
}

func TestPurgeByIDs_CountsOnlyExisting(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	m := f.addToCart(t, alice, x.ID)

	res, err := f.engine.PurgeByIDs(f.ctx, []string{m.ID, m.ID, " ", cartdom.Key("ghost", x.ID)})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	res, err = f.engine.PurgeByIDs(f.ctx, []string{m.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
}

func TestPurgeByOwner_ConcurrentWithPurgeByIDs(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := newFixture(t)
		var ms []cartdom.Membership
		for _, title := range []string{"P", "Q", "R"} {
			it := f.listed(t, seller, title)
			ms = append(ms, f.addToCart(t, alice, it.ID))
		}
		other := f.listed(t, seller, "S")
		f.addToCart(t, bob, other.ID)

		var wg sync.WaitGroup
		var byOwner, byIDs PurgeResult
		var errOwner, errIDs error
		wg.Add(2)
		go func() {
			defer wg.Done()
			byOwner, errOwner = f.engine.PurgeByOwner(f.ctx, alice.Subject)
		}()
		go func() {
			defer wg.Done()
			byIDs, errIDs = f.engine.PurgeByIDs(f.ctx, []string{ms[1].ID})
		}()
		wg.Wait()

		require.NoError(t, errOwner)
		require.NoError(t, errIDs)
		assert.Empty(t, f.membershipsForOwner(t, alice.Subject))
		assert.Equal(t, 3, byOwner.Removed+byIDs.Removed, "removals must not be double counted")
		assert.Len(t, f.membershipsForOwner(t, bob.Subject), 1)
	}
}

func TestPurge_ChunksLargeSets(t *testing.T) {
	f := newFixture(t)
	f.engine.WithBatchSize(2)
	x := f.listed(t, seller, "X")
	for i := 0; i < 5; i++ {
		who := alice
		who.Subject = who.Subject + string(rune('a'+i))
		f.addToCart(t, who, x.ID)
	}

	res, err := f.engine.PurgeByItem(f.ctx, x.ID)

	require.NoError(t, err)
	assert.Equal(t, 5, res.Removed)
}

func TestPurge_FailureReportsPartialCount(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	f.addToCart(t, alice, x.ID)
	f.carts.failDeletes(errStoreDown)

	res, err := f.engine.PurgeByItem(f.ctx, x.ID)

	assert.Equal(t, KindDependencyFailure, KindOf(err))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, res.Removed)
}

func TestGlobalSweep_RestoresInvariant(t *testing.T) {
	f := newFixture(t)
	f.engine.WithBatchSize(2)

	live := f.listed(t, seller, "Live")
	withdrawn := f.listed(t, seller, "Withdrawn")
	sold := f.listed(t, seller, "Sold")
	drafted := f.listed(t, seller, "Drafted")
	deleted := f.listed(t, seller, "Deleted")

	for _, it := range []itemdom.Item{live, withdrawn, sold, drafted, deleted} {
		f.addToCart(t, alice, it.ID)
		f.addToCart(t, bob, it.ID)
	}

	// simulate every lost cleanup: status writes land, purges never run
	f.carts.failDeletes(errStoreDown)
	_, err := f.lifecycle.Withdraw(f.ctx, seller, withdrawn.ID)
	require.NoError(t, err)
	_, err = f.lifecycle.MarkSold(f.ctx, sold.ID, carol.Subject, carol.Email)
	require.NoError(t, err)
	_, err = f.lifecycle.Unpublish(f.ctx, seller, drafted.ID)
	require.NoError(t, err)
	_, err = f.lifecycle.Delete(f.ctx, seller, deleted.ID)
	require.NoError(t, err)
	f.carts.failDeletes(nil)

	// and a membership written behind the coordinator's back
	ghost, err := cartdom.NewMembership(carol.Subject, "no-such-item", time.Now())
	require.NoError(t, err)
	_, err = f.carts.CreateIfAbsent(f.ctx, ghost)
	require.NoError(t, err)

	rep, err := f.engine.GlobalSweep(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 11, rep.Scanned)
	assert.Equal(t, 6, rep.ItemsChecked)
	assert.Equal(t, 9, rep.Stale)
	assert.Equal(t, 9, rep.Removed)

	for _, it := range []itemdom.Item{withdrawn, sold, drafted, deleted} {
		assert.Empty(t, f.membershipsForItem(t, it.ID), it.Title)
	}
	assert.Len(t, f.membershipsForItem(t, live.ID), 2)

	again, err := f.engine.GlobalSweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Removed)
}

func TestRepairOwner_OnlyTouchesOwner(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	f.addToCart(t, alice, x.ID)
	f.addToCart(t, bob, x.ID)
	f.carts.failDeletes(errStoreDown)
	_, err := f.lifecycle.Withdraw(f.ctx, seller, x.ID)
	require.NoError(t, err)
	f.carts.failDeletes(nil)

	res, err := f.engine.RepairOwner(f.ctx, alice.Subject)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Empty(t, f.membershipsForOwner(t, alice.Subject))
	assert.Len(t, f.membershipsForOwner(t, bob.Subject), 1)
}

func TestRemoveFromCart_RejectsForeignIDs(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	mine := f.addToCart(t, alice, x.ID)
	theirs := f.addToCart(t, bob, x.ID)

	_, err := f.engine.RemoveFromCart(f.ctx, alice, []string{mine.ID, theirs.ID})
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Len(t, f.membershipsForItem(t, x.ID), 2)

	_, err = f.engine.RemoveFromCart(f.ctx, alice, []string{"garbage"})
	assert.Equal(t, KindInvalidInput, KindOf(err))

	res, err := f.engine.RemoveFromCart(f.ctx, alice, []string{mine.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	_, err = f.engine.RemoveFromCart(f.ctx, anon, []string{mine.ID})
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestListCart_FlagsUnavailable(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	y := f.listed(t, seller, "Y")
	f.addToCart(t, alice, x.ID)
	f.addToCart(t, alice, y.ID)
	f.carts.failDeletes(errStoreDown)
	_, err := f.lifecycle.Withdraw(f.ctx, seller, y.ID)
	require.NoError(t, err)
	f.carts.failDeletes(nil)

	lines, err := f.engine.ListCart(f.ctx, alice)

	require.NoError(t, err)
	require.Len(t, lines, 2)
	avail := map[string]bool{}
	for _, l := range lines {
		require.NotNil(t, l.Item)
		avail[l.Item.ID] = l.Available
	}
	assert.True(t, avail[x.ID])
	assert.False(t, avail[y.ID])
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	x := f.listed(t, seller, "X")
	y := f.listed(t, seller, "Y")
	f.addToCart(t, alice, x.ID)
	f.addToCart(t, alice, y.ID)

	res, err := f.engine.ClearCart(f.ctx, alice)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
}
