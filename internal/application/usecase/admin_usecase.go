// internal/application/usecase/admin_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
)

// AdminUsecase holds moderation operations. Every method requires an admin
// identity.
type AdminUsecase struct {
	items     itemdom.Repository
	carts     cartdom.Repository
	purchases purchasedom.Repository
	engine    *CartConsistencyUsecase
	lifecycle *ItemLifecycleUsecase
	directory userdom.Directory
	log       *zap.Logger
}

type AdminDeps struct {
	Items     itemdom.Repository
	Carts     cartdom.Repository
	Purchases purchasedom.Repository
	Engine    *CartConsistencyUsecase
	Lifecycle *ItemLifecycleUsecase
	Directory userdom.Directory
	Logger    *zap.Logger
}

func NewAdminUsecase(d AdminDeps) *AdminUsecase {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &AdminUsecase{
		items:     d.Items,
		carts:     d.Carts,
		purchases: d.Purchases,
		engine:    d.Engine,
		lifecycle: d.Lifecycle,
		directory: d.Directory,
		log:       d.Logger.Named("admin_uc"),
	}
}

// Sweep runs the global cart sweep.
func (uc *AdminUsecase) Sweep(ctx context.Context, caller userdom.Identity) (SweepReport, error) {
	if err := requireAdmin("admin.Sweep", caller); err != nil {
		return SweepReport{}, err
	}
	uc.log.Info("sweep requested", zap.String("by", maskID(caller.Subject)))
	return uc.engine.GlobalSweep(ctx)
}

// PurgeItem removes every cart membership referencing itemID.
func (uc *AdminUsecase) PurgeItem(ctx context.Context, caller userdom.Identity, itemID string) (PurgeResult, error) {
	if err := requireAdmin("admin.PurgeItem", caller); err != nil {
		return PurgeResult{}, err
	}
	return uc.engine.PurgeByItem(ctx, itemID)
}

// RemoveUserReport describes what RemoveUser did.
type RemoveUserReport struct {
	UserID         string
	Withdrawn      int
	CartRemoved    int
	AccountDeleted bool
	Warnings       []string
}

// RemoveUser withdraws every unsold listing of uid, empties their cart and
// deletes their account at the identity provider.
// Listing withdrawal is the primary effect; cart and account steps are best
// effort and reported as warnings.
func (uc *AdminUsecase) RemoveUser(ctx context.Context, caller userdom.Identity, uid string) (RemoveUserReport, error) {
	const op = "admin.RemoveUser"
	if err := requireAdmin(op, caller); err != nil {
		return RemoveUserReport{}, err
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return RemoveUserReport{}, newError(KindInvalidInput, op, ErrInvalidArgument)
	}

	rep := RemoveUserReport{UserID: uid}

	ids, err := uc.activeListingIDs(ctx, uid)
	if err != nil {
		return rep, wrap(op, err)
	}
	for _, id := range ids {
		res, err := uc.lifecycle.withdrawUnsold(ctx, caller, id)
		if err != nil {
			if IsKind(err, KindNotFound) || IsKind(err, KindConflict) {
				// deleted or sold concurrently
				continue
			}
			return rep, err
		}
		if res.Changed {
			rep.Withdrawn++
		}
		if w := res.Cleanup.Warning(); w != "" {
			rep.Warnings = append(rep.Warnings, id+": "+w)
		}
	}

	if res, err := uc.engine.PurgeByOwner(ctx, uid); err != nil {
		rep.Warnings = append(rep.Warnings, "cart: "+err.Error())
		uc.log.Warn("remove user: cart purge failed", zap.String("userId", maskID(uid)), zap.Error(err))
	} else {
		rep.CartRemoved = res.Removed
	}

	if uc.directory != nil {
		err := uc.directory.DeleteUser(ctx, uid)
		switch {
		case err == nil:
			rep.AccountDeleted = true
		case errors.Is(err, userdom.ErrUserNotFound):
			rep.Warnings = append(rep.Warnings, "account: already absent")
		default:
			rep.Warnings = append(rep.Warnings, "account: "+err.Error())
			uc.log.Warn("remove user: account delete failed", zap.String("userId", maskID(uid)), zap.Error(err))
		}
	}

	uc.log.Info("user removed",
		zap.String("userId", maskID(uid)), zap.Int("withdrawn", rep.Withdrawn), zap.Int("cartRemoved", rep.CartRemoved), zap.Bool("accountDeleted", rep.AccountDeleted))
	return rep, nil
}

func (uc *AdminUsecase) activeListingIDs(ctx context.Context, sellerID string) ([]string, error) {
	filter := itemdom.Filter{
		SellerID: sellerID,
		Statuses: []itemdom.Status{itemdom.StatusDraft, itemdom.StatusForSale, itemdom.StatusPending},
	}
	sortBy := itemdom.Sort{Column: itemdom.SortByPostedAt, Order: itemdom.SortAsc}

	var ids []string
	for page := 1; ; page++ {
		res, err := uc.items.List(ctx, filter, sortBy, itemdom.Page{Number: page, PerPage: 200})
		if err != nil {
			return nil, err
		}
		for _, it := range res.Items {
			ids = append(ids, it.ID)
		}
		if page >= res.TotalPages {
			return ids, nil
		}
	}
}

// Stats is a point-in-time snapshot of marketplace counters.
type Stats struct {
	ItemsByStatus   map[itemdom.Status]int
	ItemsTotal      int
	CartMemberships int
	Purchases       int
}

// Stats issues the counters concurrently and joins them.
func (uc *AdminUsecase) Stats(ctx context.Context, caller userdom.Identity) (Stats, error) {
	const op = "admin.Stats"
	if err := requireAdmin(op, caller); err != nil {
		return Stats{}, err
	}

	byStatus := make([]int, len(itemdom.AllStatuses))
	var memberships, purchases int

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range itemdom.AllStatuses {
		g.Go(func() error {
			n, err := uc.items.Count(gctx, itemdom.Filter{Statuses: []itemdom.Status{st}})
			if err != nil {
				return err
			}
			byStatus[i] = n
			return nil
		})
	}
	g.Go(func() error {
		n, err := uc.carts.Count(gctx)
		memberships = n
		return err
	})
	g.Go(func() error {
		n, err := uc.purchases.Count(gctx)
		purchases = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, wrap(op, err)
	}

	out := Stats{
		ItemsByStatus:   make(map[itemdom.Status]int, len(itemdom.AllStatuses)),
		CartMemberships: memberships,
		Purchases:       purchases,
	}
	for i, st := range itemdom.AllStatuses {
		out.ItemsByStatus[st] = byStatus[i]
		out.ItemsTotal += byStatus[i]
	}
	return out, nil
}
