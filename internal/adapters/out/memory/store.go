// internal/adapters/out/memory/store.go
package memory

import (
	"sync"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

// Store is a process-local document store with the same atomicity the
// Firestore adapters provide: every method is one atomic unit.
// Used for local runs (STORE_BACKEND=memory) and tests.
type Store struct {
	mu          sync.Mutex
	items       map[string]itemdom.Item
	memberships map[string]cartdom.Membership
	purchases   map[string]purchasedom.Purchase
}

func NewStore() *Store {
	return &Store{
		items:       map[string]itemdom.Item{},
		memberships: map[string]cartdom.Membership{},
		purchases:   map[string]purchasedom.Purchase{},
	}
}

func (s *Store) Items() *ItemRepository         { return &ItemRepository{s: s} }
func (s *Store) Carts() *CartRepository         { return &CartRepository{s: s} }
func (s *Store) Purchases() *PurchaseRepository { return &PurchaseRepository{s: s} }

func cloneItem(it itemdom.Item) itemdom.Item {
	out := it
	if it.ImageRefs != nil {
		out.ImageRefs = append([]string(nil), it.ImageRefs...)
	}
	if it.BuyerID != nil {
		v := *it.BuyerID
		out.BuyerID = &v
	}
	if it.BuyerEmail != nil {
		v := *it.BuyerEmail
		out.BuyerEmail = &v
	}
	return out
}
