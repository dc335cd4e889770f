// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	cartdom "campusmarket/internal/domain/cart"
)

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: cartMemberships
// - docId: ownerId__itemId  (docId is the source of truth)
// - fields: ownerId, itemId, quantity, addedAt
// - single-field indexes on ownerId and itemId
type CartRepositoryFS struct {
	Client *gfs.Client
}

func NewCartRepositoryFS(client *gfs.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection("cartMemberships")
}

var _ cartdom.Repository = (*CartRepositoryFS)(nil)

func (r *CartRepositoryFS) GetByID(ctx context.Context, id string) (cartdom.Membership, error) {
	if r == nil || r.Client == nil {
		return cartdom.Membership{}, ErrClientNil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return cartdom.Membership{}, cartdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return cartdom.Membership{}, cartdom.ErrNotFound
		}
		return cartdom.Membership{}, err
	}
	return decodeMembership(snap)
}

// CreateIfAbsent uses Create, which fails with AlreadyExists when the
// deterministic docId is taken. Concurrent duplicates collide server-side.
func (r *CartRepositoryFS) CreateIfAbsent(ctx context.Context, m cartdom.Membership) (bool, error) {
	if r == nil || r.Client == nil {
		return false, ErrClientNil
	}
	if err := m.Validate(); err != nil {
		return false, err
	}

	_, err := r.col().Doc(m.ID).Create(ctx, membershipDoc{
		OwnerID:  m.OwnerID,
		ItemID:   m.ItemID,
		Quantity: m.Quantity,
		AddedAt:  m.AddedAt.UTC(),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *CartRepositoryFS) ListByItem(ctx context.Context, itemID string) ([]cartdom.Membership, error) {
	if r == nil || r.Client == nil {
		return nil, ErrClientNil
	}
	return r.query(ctx, r.col().Where("itemId", "==", strings.TrimSpace(itemID)))
}

func (r *CartRepositoryFS) ListByOwner(ctx context.Context, ownerID string) ([]cartdom.Membership, error) {
	if r == nil || r.Client == nil {
		return nil, ErrClientNil
	}
	return r.query(ctx, r.col().Where("ownerId", "==", strings.TrimSpace(ownerID)))
}

// Scan walks the collection ordered by docId with a cursor, so deletes made
// from fn never shift later pages.
func (r *CartRepositoryFS) Scan(ctx context.Context, pageSize int, fn func(page []cartdom.Membership) error) error {
	if r == nil || r.Client == nil {
		return ErrClientNil
	}
	if pageSize <= 0 || pageSize > cartdom.MaxBatchSize {
		pageSize = cartdom.MaxBatchSize
	}

	var last *gfs.DocumentSnapshot
	for {
		q := r.col().OrderBy(gfs.DocumentID, gfs.Asc).Limit(pageSize)
		if last != nil {
			q = q.StartAfter(last)
		}

		snaps, err := q.Documents(ctx).GetAll()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return nil
		}

		page := make([]cartdom.Membership, 0, len(snaps))
		for _, s := range snaps {
			m, err := decodeMembership(s)
			if err != nil {
				return err
			}
			page = append(page, m)
		}
		last = snaps[len(snaps)-1]

		if err := fn(page); err != nil {
			return err
		}
		if len(snaps) < pageSize {
			return nil
		}
	}
}

func (r *CartRepositoryFS) Count(ctx context.Context) (int, error) {
	if r == nil || r.Client == nil {
		return 0, ErrClientNil
	}
	return countQuery(ctx, r.col().Query)
}

// DeleteBatch deletes ids in one transaction. The transaction reads the docs
// first, so the count only includes docs that existed at commit time.
func (r *CartRepositoryFS) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	if r == nil || r.Client == nil {
		return 0, ErrClientNil
	}
	ids = trimmedIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > cartdom.MaxBatchSize {
		return 0, fmt.Errorf("cart_repository_fs: batch of %d exceeds %d", len(ids), cartdom.MaxBatchSize)
	}

	refs := make([]*gfs.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}

	var removed int
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		removed = 0
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			if s == nil || !s.Exists() {
				continue
			}
			if err := tx.Delete(s.Ref); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *CartRepositoryFS) query(ctx context.Context, q gfs.Query) ([]cartdom.Membership, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	out := make([]cartdom.Membership, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		m, err := decodeMembership(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type membershipDoc struct {
	OwnerID  string    `firestore:"ownerId"`
	ItemID   string    `firestore:"itemId"`
	Quantity int       `firestore:"quantity"`
	AddedAt  time.Time `firestore:"addedAt"`
}

func decodeMembership(snap *gfs.DocumentSnapshot) (cartdom.Membership, error) {
	if snap == nil || !snap.Exists() {
		return cartdom.Membership{}, cartdom.ErrNotFound
	}
	var d membershipDoc
	if err := snap.DataTo(&d); err != nil {
		return cartdom.Membership{}, err
	}

	m := cartdom.Membership{
		ID:       snap.Ref.ID,
		OwnerID:  strings.TrimSpace(d.OwnerID),
		ItemID:   strings.TrimSpace(d.ItemID),
		Quantity: d.Quantity,
		AddedAt:  d.AddedAt.UTC(),
	}
	// older docs may lack the denormalized fields; the docId still carries them
	if m.OwnerID == "" || m.ItemID == "" {
		if o, i, ok := cartdom.SplitKey(m.ID); ok {
			m.OwnerID, m.ItemID = o, i
		}
	}
	if m.Quantity <= 0 {
		m.Quantity = 1
	}
	return m, nil
}
