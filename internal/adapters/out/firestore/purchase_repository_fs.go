// internal/adapters/out/firestore/purchase_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	purchasedom "campusmarket/internal/domain/purchase"
)

const purchasesCollection = "purchases"

// PurchaseRepositoryFS is the read side of purchases/{itemId}.
// Writes happen only in ItemRepositoryFS.RecordSale.
type PurchaseRepositoryFS struct {
	Client *gfs.Client
}

func NewPurchaseRepositoryFS(client *gfs.Client) *PurchaseRepositoryFS {
	return &PurchaseRepositoryFS{Client: client}
}

func (r *PurchaseRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(purchasesCollection)
}

var _ purchasedom.Repository = (*PurchaseRepositoryFS)(nil)

func (r *PurchaseRepositoryFS) GetByID(ctx context.Context, id string) (purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return purchasedom.Purchase{}, ErrClientNil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return purchasedom.Purchase{}, purchasedom.ErrNotFound
	}
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return purchasedom.Purchase{}, purchasedom.ErrNotFound
		}
		return purchasedom.Purchase{}, err
	}
	return decodePurchase(snap)
}

func (r *PurchaseRepositoryFS) ListByBuyer(ctx context.Context, buyerID string) ([]purchasedom.Purchase, error) {
	if r == nil || r.Client == nil {
		return nil, ErrClientNil
	}
	it := r.col().Where("buyerId", "==", strings.TrimSpace(buyerID)).Documents(ctx)
	defer it.Stop()

	out := make([]purchasedom.Purchase, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := decodePurchase(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PurchaseRepositoryFS) Count(ctx context.Context) (int, error) {
	if r == nil || r.Client == nil {
		return 0, ErrClientNil
	}
	return countQuery(ctx, r.col().Query)
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type purchaseDoc struct {
	ItemID     string    `firestore:"itemId"`
	BuyerID    string    `firestore:"buyerId"`
	BuyerEmail string    `firestore:"buyerEmail"`
	SellerID   string    `firestore:"sellerId"`
	ItemTitle  string    `firestore:"itemTitle"`
	Price      int       `firestore:"price"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func purchaseDocFromDomain(p purchasedom.Purchase) purchaseDoc {
	return purchaseDoc{
		ItemID:     p.ItemID,
		BuyerID:    p.BuyerID,
		BuyerEmail: p.BuyerEmail,
		SellerID:   p.SellerID,
		ItemTitle:  p.ItemTitle,
		Price:      p.Price,
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
}

func decodePurchase(snap *gfs.DocumentSnapshot) (purchasedom.Purchase, error) {
	if snap == nil || !snap.Exists() {
		return purchasedom.Purchase{}, purchasedom.ErrNotFound
	}
	var d purchaseDoc
	if err := snap.DataTo(&d); err != nil {
		return purchasedom.Purchase{}, err
	}
	return purchasedom.Purchase{
		ID:         snap.Ref.ID,
		ItemID:     strings.TrimSpace(d.ItemID),
		BuyerID:    strings.TrimSpace(d.BuyerID),
		BuyerEmail: strings.TrimSpace(d.BuyerEmail),
		SellerID:   strings.TrimSpace(d.SellerID),
		ItemTitle:  d.ItemTitle,
		Price:      d.Price,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}, nil
}
