// internal/application/usecase/item_lifecycle_usecase.go
package usecase

/*
Item lifecycle coordinator.
- Owns the sale-status state machine (see itemdom.Item transitions).
- Status writes are the primary mutation and run as a read-modify-write
  transaction in the store. The cart purge that follows is secondary: its
  result is reported in Cleanup and never turns a committed transition into
  a failure.
- Ownership is always compared against the stored record, both before the
  write and again inside the write transaction.
*/

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
)

type ItemLifecycleUsecase struct {
	items    itemdom.Repository
	sales    purchasedom.SaleRecorder
	carts    cartdom.Repository
	purger   CartPurger
	notifier ReceiptNotifier
	images   ImageURLResolver
	clock    Clock
	log      *zap.Logger
}

// ItemLifecycleDeps are the collaborators of ItemLifecycleUsecase.
// Notifier and Images are optional.
type ItemLifecycleDeps struct {
	Items    itemdom.Repository
	Sales    purchasedom.SaleRecorder
	Carts    cartdom.Repository
	Purger   CartPurger
	Notifier ReceiptNotifier
	Images   ImageURLResolver
	Clock    Clock
	Logger   *zap.Logger
}

func NewItemLifecycleUsecase(d ItemLifecycleDeps) *ItemLifecycleUsecase {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &ItemLifecycleUsecase{
		items:    d.Items,
		sales:    d.Sales,
		carts:    d.Carts,
		purger:   d.Purger,
		notifier: d.Notifier,
		images:   d.Images,
		clock:    d.Clock,
		log:      d.Logger.Named("item_uc"),
	}
}

// ============================================================
// Listing management
// ============================================================

// CreateItem stores a new draft owned by the caller.
func (uc *ItemLifecycleUsecase) CreateItem(ctx context.Context, caller userdom.Identity, d itemdom.Details) (itemdom.Item, error) {
	const op = "item.Create"
	if err := requireIdentity(op, caller); err != nil {
		return itemdom.Item{}, err
	}

	id, err := uc.items.NewID(ctx)
	if err != nil {
		return itemdom.Item{}, wrap(op, err)
	}
	it, err := itemdom.NewDraft(id, caller.Subject, d, uc.clock.Now())
	if err != nil {
		return itemdom.Item{}, wrap(op, err)
	}
	created, err := uc.items.Create(ctx, it)
	if err != nil {
		return itemdom.Item{}, wrap(op, err)
	}
	uc.log.Info("item created", zap.String("itemId", created.ID), zap.String("sellerId", maskID(created.SellerID)))
	return created, nil
}

// UpdateDetails applies a seller edit to a non-terminal listing.
func (uc *ItemLifecycleUsecase) UpdateDetails(ctx context.Context, caller userdom.Identity, itemID string, p itemdom.DetailsPatch) (itemdom.Item, error) {
	const op = "item.UpdateDetails"
	if _, err := uc.loadForSeller(ctx, op, caller, itemID, false); err != nil {
		return itemdom.Item{}, err
	}

	now := uc.clock.Now()
	updated, err := uc.items.Update(ctx, strings.TrimSpace(itemID), func(cur *itemdom.Item) error {
		if !isSeller(caller, *cur) {
			return ErrNotOwner
		}
		return cur.UpdateDetails(p, now)
	})
	if err != nil {
		return itemdom.Item{}, wrap(op, err)
	}
	return updated, nil
}

// GetItem returns a listing. Drafts and withdrawn listings are only visible
// to their seller and to admins.
func (uc *ItemLifecycleUsecase) GetItem(ctx context.Context, caller userdom.Identity, itemID string) (ItemView, error) {
	const op = "item.Get"
	id := strings.TrimSpace(itemID)
	if id == "" {
		return ItemView{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	it, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return ItemView{}, wrap(op, err)
	}
	if !publiclyVisible(it.Status) && !caller.Admin && !(caller.Valid() && isSeller(caller, it)) {
		return ItemView{}, newError(KindNotFound, op, itemdom.ErrNotFound)
	}
	return ItemView{Item: it, ImageURLs: uc.resolveImages(ctx, it)}, nil
}

// ListItems is the public catalogue: for-sale items, newest first by default.
func (uc *ItemLifecycleUsecase) ListItems(ctx context.Context, category itemdom.Category, sort itemdom.Sort, page itemdom.Page) (itemdom.PageResult, error) {
	const op = "item.List"
	if category != "" && !itemdom.IsValidCategory(category) {
		return itemdom.PageResult{}, newError(KindInvalidInput, op, itemdom.ErrInvalidCategory)
	}
	if sort.Column == "" {
		sort = itemdom.Sort{Column: itemdom.SortByPostedAt, Order: itemdom.SortDesc}
	}
	res, err := uc.items.List(ctx, itemdom.Filter{
		Statuses: []itemdom.Status{itemdom.StatusForSale},
		Category: category,
	}, sort, page)
	if err != nil {
		return itemdom.PageResult{}, wrap(op, err)
	}
	return res, nil
}

// ListMine returns the caller's own listings in any status.
func (uc *ItemLifecycleUsecase) ListMine(ctx context.Context, caller userdom.Identity, statuses []itemdom.Status, page itemdom.Page) (itemdom.PageResult, error) {
	const op = "item.ListMine"
	if err := requireIdentity(op, caller); err != nil {
		return itemdom.PageResult{}, err
	}
	for _, s := range statuses {
		if !itemdom.IsValidStatus(s) {
			return itemdom.PageResult{}, newError(KindInvalidInput, op, itemdom.ErrInvalidStatus)
		}
	}
	res, err := uc.items.List(ctx, itemdom.Filter{
		SellerID: caller.Subject,
		Statuses: statuses,
	}, itemdom.Sort{Column: itemdom.SortByUpdatedAt, Order: itemdom.SortDesc}, page)
	if err != nil {
		return itemdom.PageResult{}, wrap(op, err)
	}
	return res, nil
}

// ============================================================
// Status transitions
// ============================================================

// Publish moves the caller's draft into the for-sale state.
func (uc *ItemLifecycleUsecase) Publish(ctx context.Context, caller userdom.Identity, itemID string) (LifecycleResult, error) {
	return uc.transition(ctx, "item.Publish", caller, itemID, false, false,
		func(it *itemdom.Item) (bool, error) { return it.Publish(uc.clock.Now()) })
}

// Unpublish returns the caller's listing to draft and purges carts.
func (uc *ItemLifecycleUsecase) Unpublish(ctx context.Context, caller userdom.Identity, itemID string) (LifecycleResult, error) {
	return uc.transition(ctx, "item.Unpublish", caller, itemID, false, true,
		func(it *itemdom.Item) (bool, error) { return it.Unpublish(uc.clock.Now()) })
}

// Withdraw takes a listing off the market and purges carts. Admins may
// withdraw any listing, including sold ones.
func (uc *ItemLifecycleUsecase) Withdraw(ctx context.Context, caller userdom.Identity, itemID string) (LifecycleResult, error) {
	return uc.transition(ctx, "item.Withdraw", caller, itemID, true, true,
		func(it *itemdom.Item) (bool, error) { return it.Withdraw(caller.Admin, uc.clock.Now()) })
}

// withdrawUnsold is Withdraw that never touches a sold listing, even for admins.
func (uc *ItemLifecycleUsecase) withdrawUnsold(ctx context.Context, caller userdom.Identity, itemID string) (LifecycleResult, error) {
	return uc.transition(ctx, "item.Withdraw", caller, itemID, true, true,
		func(it *itemdom.Item) (bool, error) { return it.Withdraw(false, uc.clock.Now()) })
}

// Reserve places a checkout hold. Invoked by the payment flow, not by users.
func (uc *ItemLifecycleUsecase) Reserve(ctx context.Context, itemID string) (LifecycleResult, error) {
	return uc.systemTransition(ctx, "item.Reserve", itemID, true,
		func(it *itemdom.Item) (bool, error) { return it.Reserve(uc.clock.Now()) })
}

// Release drops a checkout hold. Invoked by the payment flow.
func (uc *ItemLifecycleUsecase) Release(ctx context.Context, itemID string) (LifecycleResult, error) {
	return uc.systemTransition(ctx, "item.Release", itemID, false,
		func(it *itemdom.Item) (bool, error) { return it.Release(uc.clock.Now()) })
}

// Delete removes the caller's listing. Carts are purged first (best effort);
// ownership, status and the absence of a purchase record are re-checked
// inside the delete transaction.
func (uc *ItemLifecycleUsecase) Delete(ctx context.Context, caller userdom.Identity, itemID string) (DeleteResult, error) {
	const op = "item.Delete"
	it, err := uc.loadForSeller(ctx, op, caller, itemID, false)
	if err != nil {
		return DeleteResult{}, err
	}
	if it.Status == itemdom.StatusSold {
		return DeleteResult{}, newError(KindConflict, op, ErrItemSold)
	}

	cleanup := uc.purgeBestEffort(ctx, op, it.ID)

	err = uc.items.Delete(ctx, it.ID, func(cur itemdom.Item) error {
		if !isSeller(caller, cur) {
			return ErrNotOwner
		}
		if cur.Status == itemdom.StatusSold {
			return ErrItemSold
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, wrap(op, err)
	}

	uc.log.Info("item deleted", zap.String("itemId", it.ID), zap.Int("cartRemoved", cleanup.Removed))
	return DeleteResult{ItemID: it.ID, Cleanup: cleanup}, nil
}

// MarkSold records a completed payment. The item status and the purchase
// record commit together; a second call for the same item is a Conflict and
// never produces a second purchase.
func (uc *ItemLifecycleUsecase) MarkSold(ctx context.Context, itemID, buyerID, buyerEmail string) (SaleResult, error) {
	const op = "item.MarkSold"
	iid := strings.TrimSpace(itemID)
	bid := strings.TrimSpace(buyerID)
	if iid == "" || bid == "" {
		return SaleResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	now := uc.clock.Now()
	sold, p, err := uc.sales.RecordSale(ctx, iid,
		func(cur *itemdom.Item) error {
			return cur.MarkSold(bid, buyerEmail, now)
		},
		func(it itemdom.Item) (purchasedom.Purchase, error) {
			return purchasedom.New(it.ID, bid, buyerEmail, it.SellerID, it.Title, it.Price, now)
		},
	)
	if err != nil {
		if errors.Is(err, purchasedom.ErrAlreadyExists) || errors.Is(err, itemdom.ErrInvalidTransition) {
			uc.log.Warn("mark sold rejected", zap.String("itemId", iid), zap.Error(err))
		}
		return SaleResult{}, wrap(op, err)
	}

	res := SaleResult{Item: sold, Purchase: p}
	res.Cleanup = uc.purgeBestEffort(ctx, op, iid)

	if uc.notifier != nil {
		if nErr := uc.notifier.SendReceipt(ctx, p); nErr != nil {
			uc.log.Warn("receipt not sent", zap.String("itemId", iid), zap.String("buyerId", maskID(bid)), zap.Error(nErr))
			res.ReceiptErr = nErr
		}
	}

	uc.log.Info("item sold",
		zap.String("itemId", iid), zap.String("buyerId", maskID(bid)), zap.Int("price", p.Price), zap.Int("cartRemoved", res.Cleanup.Removed))
	return res, nil
}

// ============================================================
// Cart entry
// ============================================================

// AddToCart puts a for-sale item in the caller's cart. The membership id is
// derived from (caller, item), so duplicate requests land on the same record
// and report AlreadyInCart instead of failing.
func (uc *ItemLifecycleUsecase) AddToCart(ctx context.Context, caller userdom.Identity, itemID string) (AddToCartResult, error) {
	const op = "item.AddToCart"
	if err := requireIdentity(op, caller); err != nil {
		return AddToCartResult{}, err
	}
	iid := strings.TrimSpace(itemID)
	if iid == "" {
		return AddToCartResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	it, err := uc.items.GetByID(ctx, iid)
	if err != nil {
		return AddToCartResult{}, wrap(op, err)
	}
	if isSeller(caller, it) {
		return AddToCartResult{}, newError(KindForbidden, op, itemdom.ErrSelfPurchase)
	}
	if !it.Status.Sellable() {
		return AddToCartResult{}, newError(KindConflict, op, ErrNotSellable)
	}

	m, err := cartdom.NewMembership(caller.Subject, iid, uc.clock.Now())
	if err != nil {
		return AddToCartResult{}, wrap(op, err)
	}
	created, err := uc.carts.CreateIfAbsent(ctx, m)
	if err != nil {
		return AddToCartResult{}, wrap(op, err)
	}
	if !created {
		existing, gErr := uc.carts.GetByID(ctx, m.ID)
		if gErr == nil {
			m = existing
		}
		return AddToCartResult{Membership: m, AlreadyInCart: true}, nil
	}

	// The item may have left the market between the read and the insert.
	// Undo our own insert when that is visible now; the sweep covers the rest.
	cur, gErr := uc.items.GetByID(ctx, iid)
	gone := errors.Is(gErr, itemdom.ErrNotFound)
	if gone || (gErr == nil && !cur.Status.Sellable()) {
		if _, dErr := uc.carts.DeleteBatch(ctx, []string{m.ID}); dErr != nil {
			uc.log.Warn("could not undo cart insert for unsellable item", zap.String("membershipId", maskID(m.ID)), zap.Error(dErr))
		}
		if gone {
			return AddToCartResult{}, newError(KindNotFound, op, itemdom.ErrNotFound)
		}
		return AddToCartResult{}, newError(KindConflict, op, ErrNotSellable)
	}

	return AddToCartResult{Membership: m}, nil
}

// ============================================================
// internals
// ============================================================

type transitionFn func(it *itemdom.Item) (bool, error)

func (uc *ItemLifecycleUsecase) transition(
	ctx context.Context,
	op string,
	caller userdom.Identity,
	itemID string,
	allowAdmin bool,
	purge bool,
	fn transitionFn,
) (LifecycleResult, error) {
	if _, err := uc.loadForSeller(ctx, op, caller, itemID, allowAdmin); err != nil {
		return LifecycleResult{}, err
	}

	var changed bool
	updated, err := uc.items.Update(ctx, strings.TrimSpace(itemID), func(cur *itemdom.Item) error {
		if !isSeller(caller, *cur) && !(allowAdmin && caller.Admin) {
			return ErrNotOwner
		}
		c, err := fn(cur)
		changed = c
		return err
	})
	if err != nil {
		return LifecycleResult{}, wrap(op, err)
	}

	res := LifecycleResult{Item: updated, Changed: changed}
	if purge && changed && !updated.Status.Sellable() {
		res.Cleanup = uc.purgeBestEffort(ctx, op, updated.ID)
	}
	uc.log.Info("item transition",
		zap.String("op", op), zap.String("itemId", updated.ID), zap.String("status", string(updated.Status)), zap.Bool("changed", changed))
	return res, nil
}

func (uc *ItemLifecycleUsecase) systemTransition(ctx context.Context, op, itemID string, purge bool, fn transitionFn) (LifecycleResult, error) {
	iid := strings.TrimSpace(itemID)
	if iid == "" {
		return LifecycleResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	var changed bool
	updated, err := uc.items.Update(ctx, iid, func(cur *itemdom.Item) error {
		c, err := fn(cur)
		changed = c
		return err
	})
	if err != nil {
		return LifecycleResult{}, wrap(op, err)
	}

	res := LifecycleResult{Item: updated, Changed: changed}
	if purge && changed && !updated.Status.Sellable() {
		res.Cleanup = uc.purgeBestEffort(ctx, op, updated.ID)
	}
	return res, nil
}

// loadForSeller runs the authorization gate for a seller-scoped operation:
// identity, then a fresh read, then the ownership compare.
func (uc *ItemLifecycleUsecase) loadForSeller(ctx context.Context, op string, caller userdom.Identity, itemID string, allowAdmin bool) (itemdom.Item, error) {
	if err := requireIdentity(op, caller); err != nil {
		return itemdom.Item{}, err
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return itemdom.Item{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	it, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return itemdom.Item{}, wrap(op, err)
	}

	if allowAdmin {
		err = requireSellerOrAdmin(op, caller, it)
	} else {
		err = requireSeller(op, caller, it)
	}
	if err != nil {
		uc.log.Warn("ownership check failed", zap.String("op", op), zap.String("itemId", id), zap.String("caller", maskID(caller.Subject)))
		return itemdom.Item{}, err
	}
	return it, nil
}

// purgeBestEffort runs purge-by-item after a committed primary mutation.
func (uc *ItemLifecycleUsecase) purgeBestEffort(ctx context.Context, op, itemID string) Cleanup {
	if uc.purger == nil {
		return Cleanup{}
	}
	res, err := uc.purger.PurgeByItem(ctx, itemID)
	c := Cleanup{Attempted: true, Removed: res.Removed, Err: err}
	if err != nil {
		uc.log.Warn("cart purge failed; sweep will repair",
			zap.String("op", op), zap.String("itemId", itemID), zap.Int("removed", res.Removed), zap.Error(err))
	}
	return c
}

func (uc *ItemLifecycleUsecase) resolveImages(ctx context.Context, it itemdom.Item) []string {
	if uc.images == nil || len(it.ImageRefs) == 0 {
		return nil
	}
	out := make([]string, 0, len(it.ImageRefs))
	for _, ref := range it.ImageRefs {
		u, err := uc.images.ResolveURL(ctx, ref)
		if err != nil {
			uc.log.Warn("image url not resolved", zap.String("itemId", it.ID), zap.String("ref", ref), zap.Error(err))
			continue
		}
		out = append(out, u)
	}
	return out
}

func publiclyVisible(s itemdom.Status) bool {
	switch s {
	case itemdom.StatusForSale, itemdom.StatusPending, itemdom.StatusSold:
		return true
	default:
		return false
	}
}
