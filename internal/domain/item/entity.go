// internal/domain/item/entity.go
package item

import (
	"errors"
	"strings"
	"time"
)

// Status is the sale status of a listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusForSale   Status = "for-sale"
	StatusPending   Status = "pending"
	StatusWithdrawn Status = "withdrawn"
	StatusSold      Status = "sold"
)

func IsValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusForSale, StatusPending, StatusWithdrawn, StatusSold:
		return true
	default:
		return false
	}
}

// AllStatuses is the stable ordering used by stats and filters.
var AllStatuses = []Status{
	StatusDraft,
	StatusForSale,
	StatusPending,
	StatusWithdrawn,
	StatusSold,
}

// Sellable reports whether carts may reference an item in this status.
func (s Status) Sellable() bool { return s == StatusForSale }

// Terminal reports whether the status can no longer change through seller actions.
func (s Status) Terminal() bool { return s == StatusSold || s == StatusWithdrawn }

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

func IsValidCondition(c Condition) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionFair, ConditionPoor:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryBooks       Category = "books"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategoryKitchen     Category = "kitchen"
	CategorySports      Category = "sports"
	CategoryStationery  Category = "stationery"
	CategoryOther       Category = "other"
)

func IsValidCategory(c Category) bool {
	switch c {
	case CategoryBooks, CategoryElectronics, CategoryFurniture, CategoryClothing,
		CategoryKitchen, CategorySports, CategoryStationery, CategoryOther:
		return true
	default:
		return false
	}
}

// Item is one second-hand listing.
//
// BuyerID / BuyerEmail are set if and only if Status == StatusSold.
type Item struct {
	ID          string
	Title       string
	Description string
	Location    string
	Price       int
	Status      Status
	Condition   Condition
	Category    Category

	SellerID   string
	BuyerID    *string
	BuyerEmail *string

	ImageRefs []string

	PostedAt  time.Time
	UpdatedAt time.Time
}

// Details are the seller-editable fields of a listing.
type Details struct {
	Title       string
	Description string
	Location    string
	Price       int
	Condition   Condition
	Category    Category
	ImageRefs   []string
}

// DetailsPatch is a partial update of Details. nil means "no change".
type DetailsPatch struct {
	Title       *string
	Description *string
	Location    *string
	Price       *int
	Condition   *Condition
	Category    *Category
	ImageRefs   *[]string
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID          = errors.New("item: invalid id")
	ErrInvalidTitle       = errors.New("item: invalid title")
	ErrInvalidLocation    = errors.New("item: invalid location")
	ErrInvalidPrice       = errors.New("item: invalid price")
	ErrInvalidStatus      = errors.New("item: invalid status")
	ErrInvalidCondition   = errors.New("item: invalid condition")
	ErrInvalidCategory    = errors.New("item: invalid category")
	ErrInvalidSellerID    = errors.New("item: invalid sellerId")
	ErrInvalidBuyer       = errors.New("item: buyer fields must be set iff status is sold")
	ErrInvalidTimestamps  = errors.New("item: invalid timestamps")
	ErrInvalidTransition  = errors.New("item: invalid status transition")
	ErrImmutable          = errors.New("item: listing can no longer be edited")
	ErrSelfPurchase       = errors.New("item: seller cannot buy own item")
	ErrTooManyImages      = errors.New("item: too many images")
	ErrInvalidDescription = errors.New("item: invalid description")
)

// ========================================
// Policy
// ========================================

var (
	MaxTitleLength       = 120
	MaxDescriptionLength = 4000
	MaxImages            = 8
	MaxPrice             = 10_000_000
)

// ========================================
// Constructors
// ========================================

// NewDraft builds a new listing in draft status.
func NewDraft(id, sellerID string, d Details, now time.Time) (Item, error) {
	now = now.UTC()
	it := Item{
		ID:       strings.TrimSpace(id),
		SellerID: strings.TrimSpace(sellerID),
		Status:   StatusDraft,
		PostedAt: now,
	}
	it.applyDetails(d)
	it.UpdatedAt = now
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// ========================================
// Behavior (status transitions)
// ========================================

// Publish moves a draft into the sellable state.
// Publishing an already listed item is a no-op (changed=false).
func (it *Item) Publish(now time.Time) (changed bool, err error) {
	switch it.Status {
	case StatusForSale:
		return false, nil
	case StatusDraft:
		return it.setStatus(StatusForSale, now), nil
	default:
		return false, ErrInvalidTransition
	}
}

// Unpublish returns a listed or held item to draft.
func (it *Item) Unpublish(now time.Time) (bool, error) {
	switch it.Status {
	case StatusDraft:
		return false, nil
	case StatusForSale, StatusPending:
		return it.setStatus(StatusDraft, now), nil
	default:
		return false, ErrInvalidTransition
	}
}

// Reserve places a checkout hold on a listed item.
func (it *Item) Reserve(now time.Time) (bool, error) {
	switch it.Status {
	case StatusPending:
		return false, nil
	case StatusForSale:
		return it.setStatus(StatusPending, now), nil
	default:
		return false, ErrInvalidTransition
	}
}

// Release drops a checkout hold.
func (it *Item) Release(now time.Time) (bool, error) {
	switch it.Status {
	case StatusForSale:
		return false, nil
	case StatusPending:
		return it.setStatus(StatusForSale, now), nil
	default:
		return false, ErrInvalidTransition
	}
}

// Withdraw takes the listing off the market for good.
// Sold items may only be withdrawn administratively (admin=true).
func (it *Item) Withdraw(admin bool, now time.Time) (bool, error) {
	switch it.Status {
	case StatusWithdrawn:
		return false, nil
	case StatusSold:
		if !admin {
			return false, ErrInvalidTransition
		}
		// the purchase record keeps the buyer; the listing drops it
		it.BuyerID = nil
		it.BuyerEmail = nil
		return it.setStatus(StatusWithdrawn, now), nil
	default:
		return it.setStatus(StatusWithdrawn, now), nil
	}
}

// MarkSold records the buyer. A second call on a sold item is a conflict.
func (it *Item) MarkSold(buyerID, buyerEmail string, now time.Time) error {
	bid := strings.TrimSpace(buyerID)
	if bid == "" {
		return ErrInvalidBuyer
	}
	if it.Status != StatusForSale && it.Status != StatusPending {
		return ErrInvalidTransition
	}
	if bid == it.SellerID {
		return ErrSelfPurchase
	}
	email := strings.TrimSpace(buyerEmail)
	it.Status = StatusSold
	it.BuyerID = &bid
	it.BuyerEmail = &email
	it.UpdatedAt = now.UTC()
	return it.Validate()
}

// UpdateDetails applies a seller edit. Terminal listings are immutable.
func (it *Item) UpdateDetails(p DetailsPatch, now time.Time) error {
	if it.Status.Terminal() {
		return ErrImmutable
	}
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		it.Description = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		it.Location = strings.TrimSpace(*p.Location)
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Condition != nil {
		it.Condition = *p.Condition
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.ImageRefs != nil {
		it.ImageRefs = normalizeRefs(*p.ImageRefs)
	}
	it.UpdatedAt = now.UTC()
	return it.Validate()
}

func (it *Item) setStatus(next Status, now time.Time) bool {
	if it.Status == next {
		return false
	}
	it.Status = next
	it.UpdatedAt = now.UTC()
	return true
}

func (it *Item) applyDetails(d Details) {
	it.Title = strings.TrimSpace(d.Title)
	it.Description = strings.TrimSpace(d.Description)
	it.Location = strings.TrimSpace(d.Location)
	it.Price = d.Price
	it.Condition = d.Condition
	it.Category = d.Category
	it.ImageRefs = normalizeRefs(d.ImageRefs)
}

// ========================================
// Validation
// ========================================

func (it Item) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return ErrInvalidID
	}
	if t := strings.TrimSpace(it.Title); t == "" || len([]rune(t)) > MaxTitleLength {
		return ErrInvalidTitle
	}
	if len([]rune(it.Description)) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	if strings.TrimSpace(it.Location) == "" {
		return ErrInvalidLocation
	}
	if it.Price <= 0 || (MaxPrice > 0 && it.Price > MaxPrice) {
		return ErrInvalidPrice
	}
	if !IsValidStatus(it.Status) {
		return ErrInvalidStatus
	}
	if !IsValidCondition(it.Condition) {
		return ErrInvalidCondition
	}
	if !IsValidCategory(it.Category) {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(it.SellerID) == "" {
		return ErrInvalidSellerID
	}
	if len(it.ImageRefs) > MaxImages {
		return ErrTooManyImages
	}
	if err := it.validateBuyer(); err != nil {
		return err
	}
	if it.PostedAt.IsZero() || it.UpdatedAt.IsZero() || it.UpdatedAt.Before(it.PostedAt) {
		return ErrInvalidTimestamps
	}
	return nil
}

func (it Item) validateBuyer() error {
	hasBuyer := it.BuyerID != nil && strings.TrimSpace(*it.BuyerID) != ""
	if it.Status == StatusSold {
		if !hasBuyer || it.BuyerEmail == nil {
			return ErrInvalidBuyer
		}
		return nil
	}
	if hasBuyer || it.BuyerEmail != nil {
		return ErrInvalidBuyer
	}
	return nil
}

// ========================================
// Helpers
// ========================================

func normalizeRefs(src []string) []string {
	out := make([]string, 0, len(src))
	seen := make(map[string]struct{}, len(src))
	for _, r := range src {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
