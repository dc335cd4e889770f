// internal/adapters/out/firestore/item_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	common "campusmarket/internal/domain/common"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

// ItemRepositoryFS implements item.Repository and purchase.SaleRecorder.
//
// Collection design:
// - collection: items
// - docId: Firestore auto id
// - composite indexes: (status, category, postedAt), (sellerId, status, updatedAt)
type ItemRepositoryFS struct {
	Client *gfs.Client
}

func NewItemRepositoryFS(client *gfs.Client) *ItemRepositoryFS {
	return &ItemRepositoryFS{Client: client}
}

func (r *ItemRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection("items")
}

func (r *ItemRepositoryFS) purchasesCol() *gfs.CollectionRef {
	return r.Client.Collection(purchasesCollection)
}

// Compile-time checks
var (
	_ itemdom.Repository       = (*ItemRepositoryFS)(nil)
	_ purchasedom.SaleRecorder = (*ItemRepositoryFS)(nil)
)

// =======================
// Queries
// =======================

func (r *ItemRepositoryFS) GetByID(ctx context.Context, id string) (itemdom.Item, error) {
	if r == nil || r.Client == nil {
		return itemdom.Item{}, ErrClientNil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return itemdom.Item{}, itemdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return itemdom.Item{}, itemdom.ErrNotFound
		}
		return itemdom.Item{}, err
	}
	return decodeItem(snap)
}

// GetMany resolves ids in one round trip. Missing ids are absent from the map.
func (r *ItemRepositoryFS) GetMany(ctx context.Context, ids []string) (map[string]itemdom.Item, error) {
	if r == nil || r.Client == nil {
		return nil, ErrClientNil
	}
	ids = trimmedIDs(ids)
	out := make(map[string]itemdom.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	refs := make([]*gfs.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}
	snaps, err := r.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		it, err := decodeItem(snap)
		if err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, nil
}

func (r *ItemRepositoryFS) List(ctx context.Context, filter itemdom.Filter, sortOpt itemdom.Sort, page itemdom.Page) (itemdom.PageResult, error) {
	if r == nil || r.Client == nil {
		return itemdom.PageResult{}, ErrClientNil
	}
	page = common.NormalizePage(page)

	base := r.applyFilter(r.col().Query, filter)
	total, err := countQuery(ctx, base)
	if err != nil {
		return itemdom.PageResult{}, err
	}

	q := applyItemSort(base, sortOpt).
		Offset((page.Number - 1) * page.PerPage).
		Limit(page.PerPage)

	it := q.Documents(ctx)
	defer it.Stop()

	items := make([]itemdom.Item, 0, page.PerPage)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return itemdom.PageResult{}, err
		}
		v, err := decodeItem(snap)
		if err != nil {
			return itemdom.PageResult{}, err
		}
		items = append(items, v)
	}

	pages := 0
	if total > 0 {
		pages = (total + page.PerPage - 1) / page.PerPage
	}
	return itemdom.PageResult{
		Items:      items,
		TotalCount: total,
		TotalPages: pages,
		Page:       page.Number,
		PerPage:    page.PerPage,
	}, nil
}

func (r *ItemRepositoryFS) Count(ctx context.Context, filter itemdom.Filter) (int, error) {
	if r == nil || r.Client == nil {
		return 0, ErrClientNil
	}
	return countQuery(ctx, r.applyFilter(r.col().Query, filter))
}

// =======================
// Commands
// =======================

func (r *ItemRepositoryFS) NewID(_ context.Context) (string, error) {
	if r == nil || r.Client == nil {
		return "", ErrClientNil
	}
	return r.col().NewDoc().ID, nil
}

func (r *ItemRepositoryFS) Create(ctx context.Context, v itemdom.Item) (itemdom.Item, error) {
	if r == nil || r.Client == nil {
		return itemdom.Item{}, ErrClientNil
	}
	if err := v.Validate(); err != nil {
		return itemdom.Item{}, err
	}
	if _, err := r.col().Doc(v.ID).Create(ctx, itemDocFromDomain(v)); err != nil {
		if isAlreadyExists(err) {
			return itemdom.Item{}, itemdom.ErrConflict
		}
		return itemdom.Item{}, err
	}
	return v, nil
}

// Update is a read-modify-write transaction: fn sees the committed state.
func (r *ItemRepositoryFS) Update(ctx context.Context, id string, fn itemdom.Mutator) (itemdom.Item, error) {
	if r == nil || r.Client == nil {
		return itemdom.Item{}, ErrClientNil
	}
	id = strings.TrimSpace(id)
	ref := r.col().Doc(id)

	var out itemdom.Item
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return itemdom.ErrNotFound
			}
			return err
		}
		cur, err := decodeItem(snap)
		if err != nil {
			return err
		}
		if err := fn(&cur); err != nil {
			return err
		}
		cur.ID = id
		if err := cur.Validate(); err != nil {
			return err
		}
		out = cur
		return tx.Set(ref, itemDocFromDomain(cur))
	})
	if err != nil {
		return itemdom.Item{}, err
	}
	return out, nil
}

func (r *ItemRepositoryFS) Delete(ctx context.Context, id string, guard itemdom.Guard) error {
	if r == nil || r.Client == nil {
		return ErrClientNil
	}
	id = strings.TrimSpace(id)
	ref := r.col().Doc(id)
	purchaseRef := r.purchasesCol().Doc(id)

	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snaps, err := tx.GetAll([]*gfs.DocumentRef{ref, purchaseRef})
		if err != nil {
			return err
		}
		snap := snaps[0]
		if snap == nil || !snap.Exists() {
			return itemdom.ErrNotFound
		}
		if guard != nil {
			cur, err := decodeItem(snap)
			if err != nil {
				return err
			}
			if err := guard(cur); err != nil {
				return err
			}
		}
		if snaps[1] != nil && snaps[1].Exists() {
			return itemdom.ErrPurchased
		}
		return tx.Delete(ref)
	})
}

// RecordSale marks the item sold and creates purchases/{itemId} in one
// transaction. All reads happen before the writes.
func (r *ItemRepositoryFS) RecordSale(ctx context.Context, itemID string, mutate itemdom.Mutator, build purchasedom.BuildFunc) (itemdom.Item, purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return itemdom.Item{}, purchasedom.Purchase{}, ErrClientNil
	}
	id := strings.TrimSpace(itemID)
	itemRef := r.col().Doc(id)
	purchaseRef := r.purchasesCol().Doc(id)

	var (
		sold itemdom.Item
		p    purchasedom.Purchase
	)
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snaps, err := tx.GetAll([]*gfs.DocumentRef{itemRef, purchaseRef})
		if err != nil {
			return err
		}
		if !snaps[0].Exists() {
			return itemdom.ErrNotFound
		}
		if snaps[1].Exists() {
			return purchasedom.ErrAlreadyExists
		}

		cur, err := decodeItem(snaps[0])
		if err != nil {
			return err
		}
		if err := mutate(&cur); err != nil {
			return err
		}
		if err := cur.Validate(); err != nil {
			return err
		}
		built, err := build(cur)
		if err != nil {
			return err
		}

		if err := tx.Set(itemRef, itemDocFromDomain(cur)); err != nil {
			return err
		}
		if err := tx.Create(purchaseRef, purchaseDocFromDomain(built)); err != nil {
			return err
		}
		sold, p = cur, built
		return nil
	})
	if err != nil {
		if isAlreadyExists(err) {
			return itemdom.Item{}, purchasedom.Purchase{}, purchasedom.ErrAlreadyExists
		}
		return itemdom.Item{}, purchasedom.Purchase{}, err
	}
	return sold, p, nil
}

// =======================
// Query helpers
// =======================

func (r *ItemRepositoryFS) applyFilter(q gfs.Query, f itemdom.Filter) gfs.Query {
	if sid := strings.TrimSpace(f.SellerID); sid != "" {
		q = q.Where("sellerId", "==", sid)
	}
	if f.Category != "" {
		q = q.Where("category", "==", string(f.Category))
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		q = q.Where("status", "==", string(f.Statuses[0]))
	default:
		ss := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			ss = append(ss, string(s))
		}
		q = q.Where("status", "in", ss)
	}
	return q
}

func applyItemSort(q gfs.Query, s itemdom.Sort) gfs.Query {
	dir := gfs.Asc
	if s.Order == itemdom.SortDesc {
		dir = gfs.Desc
	}
	switch s.Column {
	case itemdom.SortByPrice:
		q = q.OrderBy("price", dir)
	case itemdom.SortByUpdatedAt:
		q = q.OrderBy("updatedAt", dir)
	default:
		q = q.OrderBy("postedAt", dir)
	}
	return q.OrderBy(gfs.DocumentID, dir)
}

// =======================
// Firestore DTO
// =======================

type itemDoc struct {
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Location    string    `firestore:"location"`
	Price       int       `firestore:"price"`
	Status      string    `firestore:"status"`
	Condition   string    `firestore:"condition"`
	Category    string    `firestore:"category"`
	SellerID    string    `firestore:"sellerId"`
	BuyerID     *string   `firestore:"buyerId"`
	BuyerEmail  *string   `firestore:"buyerEmail"`
	ImageRefs   []string  `firestore:"imageRefs"`
	PostedAt    time.Time `firestore:"postedAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func itemDocFromDomain(v itemdom.Item) itemDoc {
	refs := v.ImageRefs
	if refs == nil {
		refs = []string{}
	}
	return itemDoc{
		Title:       v.Title,
		Description: v.Description,
		Location:    v.Location,
		Price:       v.Price,
		Status:      string(v.Status),
		Condition:   string(v.Condition),
		Category:    string(v.Category),
		SellerID:    v.SellerID,
		BuyerID:     v.BuyerID,
		BuyerEmail:  v.BuyerEmail,
		ImageRefs:   refs,
		PostedAt:    v.PostedAt.UTC(),
		UpdatedAt:   v.UpdatedAt.UTC(),
	}
}

func decodeItem(snap *gfs.DocumentSnapshot) (itemdom.Item, error) {
	if snap == nil || !snap.Exists() {
		return itemdom.Item{}, itemdom.ErrNotFound
	}
	var d itemDoc
	if err := snap.DataTo(&d); err != nil {
		return itemdom.Item{}, err
	}
	// docId is the source of truth
	return itemdom.Item{
		ID:          snap.Ref.ID,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Price:       d.Price,
		Status:      itemdom.Status(strings.TrimSpace(d.Status)),
		Condition:   itemdom.Condition(strings.TrimSpace(d.Condition)),
		Category:    itemdom.Category(strings.TrimSpace(d.Category)),
		SellerID:    strings.TrimSpace(d.SellerID),
		BuyerID:     strPtr(d.BuyerID),
		BuyerEmail:  strPtr(d.BuyerEmail),
		ImageRefs:   d.ImageRefs,
		PostedAt:    d.PostedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}
