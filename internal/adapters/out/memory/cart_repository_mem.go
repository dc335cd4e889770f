// internal/adapters/out/memory/cart_repository_mem.go
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	cartdom "campusmarket/internal/domain/cart"
)

type CartRepository struct {
	s *Store
}

var _ cartdom.Repository = (*CartRepository)(nil)

var ErrBatchTooLarge = errors.New("memory: batch exceeds max size")

func (r *CartRepository) GetByID(ctx context.Context, id string) (cartdom.Membership, error) {
	if err := ctx.Err(); err != nil {
		return cartdom.Membership{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.memberships[strings.TrimSpace(id)]
	if !ok {
		return cartdom.Membership{}, cartdom.ErrNotFound
	}
	return m, nil
}

func (r *CartRepository) CreateIfAbsent(ctx context.Context, m cartdom.Membership) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := m.Validate(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.memberships[m.ID]; exists {
		return false, nil
	}
	r.s.memberships[m.ID] = m
	return true, nil
}

func (r *CartRepository) ListByItem(ctx context.Context, itemID string) ([]cartdom.Membership, error) {
	iid := strings.TrimSpace(itemID)
	return r.list(ctx, func(m cartdom.Membership) bool { return m.ItemID == iid })
}

func (r *CartRepository) ListByOwner(ctx context.Context, ownerID string) ([]cartdom.Membership, error) {
	oid := strings.TrimSpace(ownerID)
	return r.list(ctx, func(m cartdom.Membership) bool { return m.OwnerID == oid })
}

// Scan pages by id cursor, so deletions made by fn do not skip entries.
func (r *CartRepository) Scan(ctx context.Context, pageSize int, fn func(page []cartdom.Membership) error) error {
	if pageSize <= 0 {
		pageSize = cartdom.MaxBatchSize
	}
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := r.list(ctx, func(m cartdom.Membership) bool { return m.ID > after })
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if len(page) > pageSize {
			page = page[:pageSize]
		}
		after = page[len(page)-1].ID
		if err := fn(page); err != nil {
			return err
		}
	}
}

func (r *CartRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.memberships), nil
}

// DeleteBatch deletes ids atomically and counts the ones that existed.
func (r *CartRepository) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ids) > cartdom.MaxBatchSize {
		return 0, ErrBatchTooLarge
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := r.s.memberships[id]; ok {
			delete(r.s.memberships, id)
			n++
		}
	}
	return n, nil
}

func (r *CartRepository) list(ctx context.Context, keep func(cartdom.Membership) bool) ([]cartdom.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	out := make([]cartdom.Membership, 0)
	for _, m := range r.s.memberships {
		if keep(m) {
			out = append(out, m)
		}
	}
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
