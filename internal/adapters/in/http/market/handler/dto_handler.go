// internal/adapters/in/http/market/handler/dto_handler.go
package marketHandler

import (
	"time"

	usecase "campusmarket/internal/application/usecase"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
)

type itemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Price       int       `json:"price"`
	Status      string    `json:"status"`
	Condition   string    `json:"condition"`
	Category    string    `json:"category"`
	SellerID    string    `json:"sellerId"`
	BuyerID     *string   `json:"buyerId"`
	ImageRefs   []string  `json:"imageRefs"`
	ImageURLs   []string  `json:"imageUrls,omitempty"`
	PostedAt    time.Time `json:"postedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toItemResponse(it itemdom.Item) itemResponse {
	refs := it.ImageRefs
	if refs == nil {
		refs = []string{}
	}
	return itemResponse{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Location:    it.Location,
		Price:       it.Price,
		Status:      string(it.Status),
		Condition:   string(it.Condition),
		Category:    string(it.Category),
		SellerID:    it.SellerID,
		BuyerID:     it.BuyerID,
		ImageRefs:   refs,
		PostedAt:    it.PostedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

type itemPageResponse struct {
	Items      []itemResponse `json:"items"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
}

func toItemPage(p itemdom.PageResult) itemPageResponse {
	out := itemPageResponse{
		Items:      make([]itemResponse, 0, len(p.Items)),
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
		Page:       p.Page,
		PerPage:    p.PerPage,
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, toItemResponse(it))
	}
	return out
}

// cleanupResponse is the secondary-step block attached to mutations.
type cleanupResponse struct {
	OK      bool   `json:"ok"`
	Removed int    `json:"removed"`
	Warning string `json:"warning,omitempty"`
}

func toCleanup(c usecase.Cleanup) *cleanupResponse {
	if !c.Attempted {
		return nil
	}
	return &cleanupResponse{OK: c.OK(), Removed: c.Removed, Warning: c.Warning()}
}

type lifecycleResponse struct {
	Item    itemResponse     `json:"item"`
	Changed bool             `json:"changed"`
	Cleanup *cleanupResponse `json:"cleanup,omitempty"`
}

func toLifecycle(res usecase.LifecycleResult) lifecycleResponse {
	return lifecycleResponse{Item: toItemResponse(res.Item), Changed: res.Changed, Cleanup: toCleanup(res.Cleanup)}
}

type purchaseResponse struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	ItemTitle string    `json:"itemTitle"`
	SellerID  string    `json:"sellerId"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPurchase(p purchasedom.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:        p.ID,
		ItemID:    p.ItemID,
		ItemTitle: p.ItemTitle,
		SellerID:  p.SellerID,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
	}
}

type purgeResponse struct {
	Removed int `json:"removed"`
}
