// internal/domain/purchase/entity.go
package purchase

import (
	"errors"
	"strings"
	"time"
)

// Purchase is the terminal record of a successful buy.
//
// The id equals the item id: a listing sells at most once, so a retried
// sale collides on the same document instead of creating a second record.
type Purchase struct {
	ID         string
	ItemID     string
	BuyerID    string
	BuyerEmail string
	SellerID   string
	ItemTitle  string
	Price      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	ErrInvalidItemID  = errors.New("purchase: invalid itemId")
	ErrInvalidBuyerID = errors.New("purchase: invalid buyerId")
	ErrInvalidPrice   = errors.New("purchase: invalid price")
	ErrInvalidTime    = errors.New("purchase: invalid timestamps")
)

// New builds the purchase record for itemID.
func New(itemID, buyerID, buyerEmail, sellerID, title string, price int, now time.Time) (Purchase, error) {
	now = now.UTC()
	iid := strings.TrimSpace(itemID)
	p := Purchase{
		ID:         iid,
		ItemID:     iid,
		BuyerID:    strings.TrimSpace(buyerID),
		BuyerEmail: strings.TrimSpace(buyerEmail),
		SellerID:   strings.TrimSpace(sellerID),
		ItemTitle:  strings.TrimSpace(title),
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

func (p Purchase) Validate() error {
	if p.ItemID == "" || p.ID != p.ItemID {
		return ErrInvalidItemID
	}
	if p.BuyerID == "" {
		return ErrInvalidBuyerID
	}
	if p.Price <= 0 {
		return ErrInvalidPrice
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.Before(p.CreatedAt) {
		return ErrInvalidTime
	}
	return nil
}
