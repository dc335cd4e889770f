// internal/domain/purchase/repository_port.go
package purchase

import (
	"context"
	"errors"

	itemdom "campusmarket/internal/domain/item"
)

// Repository is the read side of purchases. Records are only ever created
// through SaleRecorder.
//
// Storage (Firestore):
// - collection: purchases
// - docId: itemId
type Repository interface {
	GetByID(ctx context.Context, id string) (Purchase, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Purchase, error)
	Count(ctx context.Context) (int, error)
}

// BuildFunc derives the purchase record from the item as it will be committed.
type BuildFunc func(sold itemdom.Item) (Purchase, error)

// SaleRecorder commits "item becomes sold" and "purchase is created" as one
// atomic unit. If the purchase document already exists nothing is written
// and ErrAlreadyExists is returned.
type SaleRecorder interface {
	RecordSale(ctx context.Context, itemID string, mutate itemdom.Mutator, build BuildFunc) (itemdom.Item, Purchase, error)
}

var (
	ErrNotFound      = errors.New("purchase: not found")
	ErrAlreadyExists = errors.New("purchase: already exists")
)
