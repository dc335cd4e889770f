// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
)

// OwnerRepairer restores the cart invariant for one owner.
type OwnerRepairer interface {
	RepairOwner(ctx context.Context, ownerID string) (PurgeResult, error)
}

// CheckoutUsecase builds billing quotes from cart state. Every quote is
// computed after an owner-scoped repair, so it never bills an item that
// already left the market.
type CheckoutUsecase struct {
	carts     cartdom.Repository
	items     itemdom.Repository
	purchases purchasedom.Repository
	repair    OwnerRepairer
	log       *zap.Logger
}

func NewCheckoutUsecase(
	carts cartdom.Repository,
	items itemdom.Repository,
	purchases purchasedom.Repository,
	repair OwnerRepairer,
	logger *zap.Logger,
) *CheckoutUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutUsecase{
		carts:     carts,
		items:     items,
		purchases: purchases,
		repair:    repair,
		log:       logger.Named("checkout_uc"),
	}
}

type QuoteLine struct {
	MembershipID string
	ItemID       string
	Title        string
	SellerID     string
	Price        int
}

type CheckoutQuote struct {
	OwnerID  string
	Lines    []QuoteLine
	Total    int
	Repaired int
}

// Quote repairs the caller's cart, then prices what is left.
func (uc *CheckoutUsecase) Quote(ctx context.Context, caller userdom.Identity) (CheckoutQuote, error) {
	const op = "checkout.Quote"
	if err := requireIdentity(op, caller); err != nil {
		return CheckoutQuote{}, err
	}

	// billing reads require the invariant to hold; a failed repair aborts
	rep, err := uc.repair.RepairOwner(ctx, caller.Subject)
	if err != nil {
		return CheckoutQuote{}, wrap(op, err)
	}

	ms, err := uc.carts.ListByOwner(ctx, caller.Subject)
	if err != nil {
		return CheckoutQuote{}, wrap(op, err)
	}
	found, err := uc.items.GetMany(ctx, cartdom.ItemIDs(ms))
	if err != nil {
		return CheckoutQuote{}, wrap(op, err)
	}

	q := CheckoutQuote{OwnerID: caller.Subject, Repaired: rep.Removed}
	for _, m := range ms {
		it, ok := found[m.ItemID]
		if !ok || !it.Status.Sellable() {
			// changed after the repair; leave it to the next pass
			continue
		}
		q.Lines = append(q.Lines, QuoteLine{
			MembershipID: m.ID,
			ItemID:       it.ID,
			Title:        it.Title,
			SellerID:     it.SellerID,
			Price:        it.Price,
		})
		q.Total += it.Price
	}
	sort.Slice(q.Lines, func(i, j int) bool { return q.Lines[i].ItemID < q.Lines[j].ItemID })

	uc.log.Info("checkout quote",
		zap.String("ownerId", maskID(caller.Subject)), zap.Int("lines", len(q.Lines)), zap.Int("total", q.Total), zap.Int("repaired", q.Repaired))
	return q, nil
}

// Purchases returns the caller's purchase history, newest first.
func (uc *CheckoutUsecase) Purchases(ctx context.Context, caller userdom.Identity) ([]purchasedom.Purchase, error) {
	const op = "checkout.Purchases"
	if err := requireIdentity(op, caller); err != nil {
		return nil, err
	}
	ps, err := uc.purchases.ListByBuyer(ctx, caller.Subject)
	if err != nil {
		return nil, wrap(op, err)
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	return ps, nil
}
