// internal/application/usecase/cart_consistency_usecase.go
package usecase

/*
Cart consistency engine.
- Every purge resolves to a list of membership ids and deletes them in atomic
  chunks of at most batchSize (<= cartdom.MaxBatchSize).
- Counts come from the store: only memberships that still existed at commit
  are counted, so overlapping purges never double-count.
- A failed chunk stops the purge; what was already committed stays committed
  and GlobalSweep is the recovery path.
*/

import (
	"context"
	"strings"

	"go.uber.org/zap"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	userdom "campusmarket/internal/domain/user"
)

type CartConsistencyUsecase struct {
	items     itemdom.Repository
	carts     cartdom.Repository
	batchSize int
	log       *zap.Logger
}

func NewCartConsistencyUsecase(items itemdom.Repository, carts cartdom.Repository, logger *zap.Logger) *CartConsistencyUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartConsistencyUsecase{
		items:     items,
		carts:     carts,
		batchSize: cartdom.MaxBatchSize,
		log:       logger.Named("cart_uc"),
	}
}

// WithBatchSize overrides the delete chunk size. Values outside
// (0, cartdom.MaxBatchSize] fall back to the maximum.
func (uc *CartConsistencyUsecase) WithBatchSize(n int) *CartConsistencyUsecase {
	if n <= 0 || n > cartdom.MaxBatchSize {
		n = cartdom.MaxBatchSize
	}
	uc.batchSize = n
	return uc
}

// CartLine is one cart entry joined with its item (nil when the item is gone).
type CartLine struct {
	Membership cartdom.Membership
	Item       *itemdom.Item
	Available  bool
}

// ============================================================
// Purges
// ============================================================

// PurgeByItem deletes every membership referencing itemID.
func (uc *CartConsistencyUsecase) PurgeByItem(ctx context.Context, itemID string) (PurgeResult, error) {
	const op = "cart.PurgeByItem"
	iid := strings.TrimSpace(itemID)
	if iid == "" {
		return PurgeResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	ms, err := uc.carts.ListByItem(ctx, iid)
	if err != nil {
		return PurgeResult{}, wrap(op, err)
	}
	res, err := uc.deleteIDs(ctx, op, cartdom.IDs(ms))
	uc.log.Info("purged cart memberships by item",
		zap.String("itemId", maskID(iid)), zap.Int("matched", len(ms)), zap.Int("removed", res.Removed), zap.Error(err))
	return res, err
}

// PurgeByOwner empties ownerID's cart.
func (uc *CartConsistencyUsecase) PurgeByOwner(ctx context.Context, ownerID string) (PurgeResult, error) {
	const op = "cart.PurgeByOwner"
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return PurgeResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	ms, err := uc.carts.ListByOwner(ctx, oid)
	if err != nil {
		return PurgeResult{}, wrap(op, err)
	}
	res, err := uc.deleteIDs(ctx, op, cartdom.IDs(ms))
	uc.log.Info("purged cart memberships by owner",
		zap.String("ownerId", maskID(oid)), zap.Int("matched", len(ms)), zap.Int("removed", res.Removed), zap.Error(err))
	return res, err
}

// PurgeByIDs deletes exactly ids. Unknown ids are ignored.
func (uc *CartConsistencyUsecase) PurgeByIDs(ctx context.Context, ids []string) (PurgeResult, error) {
	return uc.deleteIDs(ctx, "cart.PurgeByIDs", cartdom.NormalizeIDs(ids))
}

// GlobalSweep scans every membership and removes those whose item is
// missing or not for sale.
func (uc *CartConsistencyUsecase) GlobalSweep(ctx context.Context) (SweepReport, error) {
	const op = "cart.GlobalSweep"

	var rep SweepReport
	sellable := map[string]bool{}

	err := uc.carts.Scan(ctx, uc.batchSize, func(page []cartdom.Membership) error {
		rep.Scanned += len(page)

		before := len(sellable)
		stale, err := uc.staleIDs(ctx, page, sellable)
		if err != nil {
			return err
		}
		rep.ItemsChecked += len(sellable) - before
		rep.Stale += len(stale)

		res, err := uc.deleteIDs(ctx, op, stale)
		rep.Removed += res.Removed
		return err
	})
	if err != nil {
		uc.log.Error("global sweep aborted",
			zap.Int("scanned", rep.Scanned), zap.Int("removed", rep.Removed), zap.Error(err))
		return rep, wrap(op, err)
	}

	uc.log.Info("global sweep finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("itemsChecked", rep.ItemsChecked),
		zap.Int("stale", rep.Stale),
		zap.Int("removed", rep.Removed),
	)
	return rep, nil
}

// RepairOwner is GlobalSweep restricted to one owner's cart.
func (uc *CartConsistencyUsecase) RepairOwner(ctx context.Context, ownerID string) (PurgeResult, error) {
	const op = "cart.RepairOwner"
	oid := strings.TrimSpace(ownerID)
	if oid == "" {
		return PurgeResult{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	ms, err := uc.carts.ListByOwner(ctx, oid)
	if err != nil {
		return PurgeResult{}, wrap(op, err)
	}
	stale, err := uc.staleIDs(ctx, ms, map[string]bool{})
	if err != nil {
		return PurgeResult{}, wrap(op, err)
	}
	if len(stale) > 0 {
		uc.log.Info("repairing cart", zap.String("ownerId", maskID(oid)), zap.Int("stale", len(stale)))
	}
	return uc.deleteIDs(ctx, op, stale)
}

// ============================================================
// Caller-scoped operations
// ============================================================

// ListCart returns the caller's cart joined with current item state.
func (uc *CartConsistencyUsecase) ListCart(ctx context.Context, caller userdom.Identity) ([]CartLine, error) {
	const op = "cart.List"
	if err := requireIdentity(op, caller); err != nil {
		return nil, err
	}

	ms, err := uc.carts.ListByOwner(ctx, caller.Subject)
	if err != nil {
		return nil, wrap(op, err)
	}
	found, err := uc.items.GetMany(ctx, cartdom.ItemIDs(ms))
	if err != nil {
		return nil, wrap(op, err)
	}

	out := make([]CartLine, 0, len(ms))
	for _, m := range ms {
		line := CartLine{Membership: m}
		if it, ok := found[m.ItemID]; ok {
			line.Item = &it
			line.Available = it.Status.Sellable()
		}
		out = append(out, line)
	}
	return out, nil
}

// ClearCart empties the caller's own cart.
func (uc *CartConsistencyUsecase) ClearCart(ctx context.Context, caller userdom.Identity) (PurgeResult, error) {
	if err := requireIdentity("cart.Clear", caller); err != nil {
		return PurgeResult{}, err
	}
	return uc.PurgeByOwner(ctx, caller.Subject)
}

// RemoveFromCart deletes the given memberships. Every id must belong to the
// caller; otherwise nothing is deleted.
func (uc *CartConsistencyUsecase) RemoveFromCart(ctx context.Context, caller userdom.Identity, ids []string) (PurgeResult, error) {
	const op = "cart.Remove"
	if err := requireIdentity(op, caller); err != nil {
		return PurgeResult{}, err
	}

	norm := cartdom.NormalizeIDs(ids)
	for _, id := range norm {
		owner, _, ok := cartdom.SplitKey(id)
		if !ok {
			return PurgeResult{}, newError(KindInvalidInput, op, cartdom.ErrInvalidMembership)
		}
		if owner != strings.TrimSpace(caller.Subject) {
			return PurgeResult{}, newError(KindForbidden, op, ErrNotOwner)
		}
	}
	return uc.deleteIDs(ctx, op, norm)
}

// ============================================================
// internals
// ============================================================

func (uc *CartConsistencyUsecase) deleteIDs(ctx context.Context, op string, ids []string) (PurgeResult, error) {
	var res PurgeResult
	for start := 0; start < len(ids); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		n, err := uc.carts.DeleteBatch(ctx, ids[start:end])
		res.Removed += n
		if err != nil {
			return res, wrap(op, err)
		}
	}
	return res, nil
}

// staleIDs returns the ids of memberships whose item is missing or not
// sellable. sellable caches item status across calls within one scan.
func (uc *CartConsistencyUsecase) staleIDs(ctx context.Context, ms []cartdom.Membership, sellable map[string]bool) ([]string, error) {
	var unknown []string
	for _, id := range cartdom.ItemIDs(ms) {
		if _, ok := sellable[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		found, err := uc.items.GetMany(ctx, unknown)
		if err != nil {
			return nil, err
		}
		for _, id := range unknown {
			it, ok := found[id]
			sellable[id] = ok && it.Status.Sellable()
		}
	}

	var stale []string
	for _, m := range ms {
		if !sellable[m.ItemID] {
			stale = append(stale, m.ID)
		}
	}
	return stale, nil
}
