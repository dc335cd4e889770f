// internal/adapters/out/memory/purchase_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"

	purchasedom "campusmarket/internal/domain/purchase"
)

type PurchaseRepository struct {
	s *Store
}

var _ purchasedom.Repository = (*PurchaseRepository)(nil)

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (purchasedom.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return purchasedom.Purchase{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.purchases[strings.TrimSpace(id)]
	if !ok {
		return purchasedom.Purchase{}, purchasedom.ErrNotFound
	}
	return p, nil
}

func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]purchasedom.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bid := strings.TrimSpace(buyerID)

	r.s.mu.Lock()
	out := make([]purchasedom.Purchase, 0)
	for _, p := range r.s.purchases {
		if p.BuyerID == bid {
			out = append(out, p)
		}
	}
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PurchaseRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.purchases), nil
}
