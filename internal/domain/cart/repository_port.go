// internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"errors"
)

// Repository is a persistence port for cart memberships.
//
// Storage (Firestore):
// - collection: cartMemberships
// - docId: ownerId__itemId
// - fields: ownerId, itemId, quantity, addedAt
type Repository interface {
	GetByID(ctx context.Context, id string) (Membership, error)

	// CreateIfAbsent inserts m unless a doc with m.ID already exists.
	// created=false means the (owner, item) pair was already in the cart.
	CreateIfAbsent(ctx context.Context, m Membership) (created bool, err error)

	ListByItem(ctx context.Context, itemID string) ([]Membership, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Membership, error)

	// Scan visits every membership ordered by id, in pages of pageSize.
	// Returning an error from fn stops the scan.
	Scan(ctx context.Context, pageSize int, fn func(page []Membership) error) error

	Count(ctx context.Context) (int, error)

	// DeleteBatch deletes ids atomically and returns how many of them
	// still existed at commit time. Missing ids are not an error.
	DeleteBatch(ctx context.Context, ids []string) (int, error)
}

var (
	ErrNotFound = errors.New("cart: membership not found")
)

// MaxBatchSize is the largest atomic delete the store accepts in one commit.
const MaxBatchSize = 500
