// internal/adapters/out/memory/item_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	common "campusmarket/internal/domain/common"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

type ItemRepository struct {
	s *Store
}

var (
	_ itemdom.Repository       = (*ItemRepository)(nil)
	_ purchasedom.SaleRecorder = (*ItemRepository)(nil)
)

func (r *ItemRepository) GetByID(ctx context.Context, id string) (itemdom.Item, error) {
	if err := ctx.Err(); err != nil {
		return itemdom.Item{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[strings.TrimSpace(id)]
	if !ok {
		return itemdom.Item{}, itemdom.ErrNotFound
	}
	return cloneItem(it), nil
}

func (r *ItemRepository) GetMany(ctx context.Context, ids []string) (map[string]itemdom.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[string]itemdom.Item, len(ids))
	for _, id := range ids {
		if it, ok := r.s.items[strings.TrimSpace(id)]; ok {
			out[it.ID] = cloneItem(it)
		}
	}
	return out, nil
}

func (r *ItemRepository) List(ctx context.Context, filter itemdom.Filter, sortOpt itemdom.Sort, page itemdom.Page) (itemdom.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return itemdom.PageResult{}, err
	}
	r.s.mu.Lock()
	all := make([]itemdom.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		if matchItemFilter(it, filter) {
			all = append(all, cloneItem(it))
		}
	}
	r.s.mu.Unlock()

	sortItems(all, sortOpt)
	return common.Paginate(all, page), nil
}

func (r *ItemRepository) Count(ctx context.Context, filter itemdom.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, it := range r.s.items {
		if matchItemFilter(it, filter) {
			n++
		}
	}
	return n, nil
}

func (r *ItemRepository) NewID(_ context.Context) (string, error) {
	return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

func (r *ItemRepository) Create(ctx context.Context, it itemdom.Item) (itemdom.Item, error) {
	if err := ctx.Err(); err != nil {
		return itemdom.Item{}, err
	}
	if err := it.Validate(); err != nil {
		return itemdom.Item{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.items[it.ID]; exists {
		return itemdom.Item{}, itemdom.ErrConflict
	}
	r.s.items[it.ID] = cloneItem(it)
	return cloneItem(it), nil
}

func (r *ItemRepository) Update(ctx context.Context, id string, fn itemdom.Mutator) (itemdom.Item, error) {
	if err := ctx.Err(); err != nil {
		return itemdom.Item{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id = strings.TrimSpace(id)
	cur, ok := r.s.items[id]
	if !ok {
		return itemdom.Item{}, itemdom.ErrNotFound
	}
	next := cloneItem(cur)
	if err := fn(&next); err != nil {
		return itemdom.Item{}, err
	}
	next.ID = id
	if err := next.Validate(); err != nil {
		return itemdom.Item{}, err
	}
	r.s.items[id] = next
	return cloneItem(next), nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string, guard itemdom.Guard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id = strings.TrimSpace(id)
	cur, ok := r.s.items[id]
	if !ok {
		return itemdom.ErrNotFound
	}
	if guard != nil {
		if err := guard(cloneItem(cur)); err != nil {
			return err
		}
	}
	if _, sold := r.s.purchases[id]; sold {
		return itemdom.ErrPurchased
	}
	delete(r.s.items, id)
	return nil
}

// RecordSale updates the item and inserts the purchase under one lock.
func (r *ItemRepository) RecordSale(ctx context.Context, itemID string, mutate itemdom.Mutator, build purchasedom.BuildFunc) (itemdom.Item, purchasedom.Purchase, error) {
	if err := ctx.Err(); err != nil {
		return itemdom.Item{}, purchasedom.Purchase{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := strings.TrimSpace(itemID)
	cur, ok := r.s.items[id]
	if !ok {
		return itemdom.Item{}, purchasedom.Purchase{}, itemdom.ErrNotFound
	}
	if _, exists := r.s.purchases[id]; exists {
		return itemdom.Item{}, purchasedom.Purchase{}, purchasedom.ErrAlreadyExists
	}

	next := cloneItem(cur)
	if err := mutate(&next); err != nil {
		return itemdom.Item{}, purchasedom.Purchase{}, err
	}
	if err := next.Validate(); err != nil {
		return itemdom.Item{}, purchasedom.Purchase{}, err
	}
	p, err := build(next)
	if err != nil {
		return itemdom.Item{}, purchasedom.Purchase{}, err
	}

	r.s.items[id] = next
	r.s.purchases[p.ID] = p
	return cloneItem(next), p, nil
}

// ----------------------------
// filter / sort
// ----------------------------

func matchItemFilter(it itemdom.Item, f itemdom.Filter) bool {
	if sid := strings.TrimSpace(f.SellerID); sid != "" && it.SellerID != sid {
		return false
	}
	if f.Category != "" && it.Category != f.Category {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if it.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func sortItems(items []itemdom.Item, s itemdom.Sort) {
	desc := s.Order == itemdom.SortDesc
	less := func(a, b itemdom.Item) bool {
		switch s.Column {
		case itemdom.SortByPrice:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case itemdom.SortByUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		default:
			if !a.PostedAt.Equal(b.PostedAt) {
				return a.PostedAt.Before(b.PostedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
