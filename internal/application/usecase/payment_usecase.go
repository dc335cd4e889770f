// internal/application/usecase/payment_usecase.go
package usecase

/*
Payment events arrive from the payment provider's webhook and may be
delivered more than once.
- payment.pending   -> Reserve each item (checkout hold)
- payment.failed    -> Release each item
- payment.succeeded -> MarkSold each item, then clear the buyer's cart (best effort)
A replayed succeeded event finds the purchase already recorded for the same
buyer and reports it as a duplicate instead of a failure.
*/

import (
	"context"
	"strings"

	"go.uber.org/zap"

	cartdom "campusmarket/internal/domain/cart"
	purchasedom "campusmarket/internal/domain/purchase"
)

type PaymentEventType string

const (
	PaymentSucceeded PaymentEventType = "payment.succeeded"
	PaymentPending   PaymentEventType = "payment.pending"
	PaymentFailed    PaymentEventType = "payment.failed"
)

func IsValidPaymentEventType(t PaymentEventType) bool {
	switch t {
	case PaymentSucceeded, PaymentPending, PaymentFailed:
		return true
	default:
		return false
	}
}

type PaymentEvent struct {
	ID         string
	Type       PaymentEventType
	BuyerID    string
	BuyerEmail string
	ItemIDs    []string
}

// PaymentItemOutcome is the per-item result of one event. Kind is empty on
// success.
type PaymentItemOutcome struct {
	ItemID    string
	Kind      Kind
	Duplicate bool
	Err       error
}

type PaymentOutcome struct {
	EventID     string
	Type        PaymentEventType
	Items       []PaymentItemOutcome
	CartCleanup Cleanup
}

// OwnerPurger empties one owner's cart.
type OwnerPurger interface {
	PurgeByOwner(ctx context.Context, ownerID string) (PurgeResult, error)
}

type PaymentUsecase struct {
	lifecycle *ItemLifecycleUsecase
	purchases purchasedom.Repository
	carts     OwnerPurger
	log       *zap.Logger
}

func NewPaymentUsecase(lifecycle *ItemLifecycleUsecase, purchases purchasedom.Repository, carts OwnerPurger, logger *zap.Logger) *PaymentUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentUsecase{
		lifecycle: lifecycle,
		purchases: purchases,
		carts:     carts,
		log:       logger.Named("payment_uc"),
	}
}

// HandleEvent applies ev. The returned error is non-nil only when at least
// one item failed on a dependency, so the provider should redeliver; every
// other per-item failure is reported in the outcome.
func (uc *PaymentUsecase) HandleEvent(ctx context.Context, ev PaymentEvent) (PaymentOutcome, error) {
	const op = "payment.HandleEvent"

	ev.ID = strings.TrimSpace(ev.ID)
	ev.BuyerID = strings.TrimSpace(ev.BuyerID)
	ids := cartdom.NormalizeIDs(ev.ItemIDs)
	if !IsValidPaymentEventType(ev.Type) || len(ids) == 0 {
		return PaymentOutcome{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}
	if ev.Type == PaymentSucceeded && ev.BuyerID == "" {
		return PaymentOutcome{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	out := PaymentOutcome{EventID: ev.ID, Type: ev.Type}
	var depErr error

	for _, id := range ids {
		o := PaymentItemOutcome{ItemID: id}
		var err error
		switch ev.Type {
		case PaymentPending:
			_, err = uc.lifecycle.Reserve(ctx, id)
		case PaymentFailed:
			_, err = uc.lifecycle.Release(ctx, id)
		case PaymentSucceeded:
			_, err = uc.lifecycle.MarkSold(ctx, id, ev.BuyerID, ev.BuyerEmail)
			if IsKind(err, KindConflict) && uc.alreadyBoughtBy(ctx, id, ev.BuyerID) {
				o.Duplicate = true
				err = nil
			}
		}
		if err != nil {
			o.Kind = KindOf(err)
			o.Err = err
			if o.Kind == KindDependencyFailure && depErr == nil {
				depErr = err
			}
			uc.log.Warn("payment event item failed",
				zap.String("eventId", ev.ID), zap.String("type", string(ev.Type)), zap.String("itemId", id), zap.Error(err))
		}
		out.Items = append(out.Items, o)
	}

	if ev.Type == PaymentSucceeded {
		res, err := uc.carts.PurgeByOwner(ctx, ev.BuyerID)
		out.CartCleanup = Cleanup{Attempted: true, Removed: res.Removed, Err: err}
		if err != nil {
			uc.log.Warn("post-payment cart clear failed", zap.String("buyerId", maskID(ev.BuyerID)), zap.Error(err))
		}
	}

	uc.log.Info("payment event handled",
		zap.String("eventId", ev.ID), zap.String("type", string(ev.Type)), zap.Int("items", len(ids)))
	if depErr != nil {
		return out, wrap(op, depErr)
	}
	return out, nil
}

func (uc *PaymentUsecase) alreadyBoughtBy(ctx context.Context, itemID, buyerID string) bool {
	if uc.purchases == nil {
		return false
	}
	p, err := uc.purchases.GetByID(ctx, itemID)
	if err != nil {
		return false
	}
	return p.BuyerID == buyerID
}
