// internal/application/usecase/result.go
package usecase

import (
	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

// Cleanup is the outcome of a secondary consistency step (cart purge).
// It never changes the outcome of the primary mutation it follows.
type Cleanup struct {
	Attempted bool
	Removed   int
	Err       error
}

func (c Cleanup) OK() bool { return c.Err == nil }

// Warning is the caller-facing description of a failed cleanup, or "".
func (c Cleanup) Warning() string {
	if c.Err == nil {
		return ""
	}
	return "cart cleanup did not complete; stale cart entries will be removed by the next sweep"
}

// LifecycleResult is returned by status transitions.
type LifecycleResult struct {
	Item    itemdom.Item
	Changed bool
	Cleanup Cleanup
}

type DeleteResult struct {
	ItemID  string
	Cleanup Cleanup
}

// SaleResult is returned by MarkSold.
type SaleResult struct {
	Item     itemdom.Item
	Purchase purchasedom.Purchase
	Cleanup  Cleanup
	// ReceiptErr is set when the buyer receipt could not be sent.
	ReceiptErr error
}

type AddToCartResult struct {
	Membership    cartdom.Membership
	AlreadyInCart bool
}

// PurgeResult reports how many memberships one purge actually removed.
type PurgeResult struct {
	Removed int
}

// SweepReport summarizes a global sweep.
type SweepReport struct {
	Scanned      int
	ItemsChecked int
	Stale        int
	Removed      int
}

// ItemView is an item with its image references resolved for display.
type ItemView struct {
	Item      itemdom.Item
	ImageURLs []string
}
