// internal/domain/item/repository_port.go
package item

import (
	"context"
	"errors"

	common "campusmarket/internal/domain/common"
)

// Filter narrows a listing scan. Zero values mean "any".
type Filter struct {
	SellerID string
	Statuses []Status
	Category Category
}

type Sort = common.Sort

const (
	SortByPostedAt  = "postedAt"
	SortByUpdatedAt = "updatedAt"
	SortByPrice     = "price"

	SortAsc  = common.SortAsc
	SortDesc = common.SortDesc
)

type Page = common.Page
type PageResult = common.PageResult[Item]

// Mutator edits the freshly read item inside a store transaction.
// Returning an error aborts the transaction and nothing is written.
type Mutator func(cur *Item) error

// Guard inspects the freshly read item before a delete commits.
type Guard func(cur Item) error

// Repository is the persistence port for Item.
//
// Storage (Firestore):
// - collection: items
// - docId: generated (NewID)
type Repository interface {
	// Queries
	GetByID(ctx context.Context, id string) (Item, error)
	GetMany(ctx context.Context, ids []string) (map[string]Item, error)
	List(ctx context.Context, filter Filter, sort Sort, page Page) (PageResult, error)
	Count(ctx context.Context, filter Filter) (int, error)

	// Commands
	NewID(ctx context.Context) (string, error)
	Create(ctx context.Context, it Item) (Item, error)
	// Update reads the item, applies fn and writes it back atomically.
	Update(ctx context.Context, id string, fn Mutator) (Item, error)
	// Delete removes the item if guard (nil = always) accepts the stored record
	// and no purchase references it (ErrPurchased).
	Delete(ctx context.Context, id string, guard Guard) error
}

var (
	ErrNotFound  = errors.New("item: not found")
	ErrConflict  = errors.New("item: conflict")
	// ErrPurchased: a purchase record references the item, so it cannot be deleted.
	ErrPurchased = errors.New("item: purchase references item")
)
