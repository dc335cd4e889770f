// internal/adapters/in/http/market/handler/cart_handler.go
package marketHandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusmarket/internal/adapters/in/http/middleware"
	usecase "campusmarket/internal/application/usecase"
	cartdom "campusmarket/internal/domain/cart"
)

// CartHandler serves the caller's cart, checkout quote and purchase history.
type CartHandler struct {
	items    *usecase.ItemLifecycleUsecase
	carts    *usecase.CartConsistencyUsecase
	checkout *usecase.CheckoutUsecase
	log      *zap.Logger
}

func NewCartHandler(
	items *usecase.ItemLifecycleUsecase,
	carts *usecase.CartConsistencyUsecase,
	checkout *usecase.CheckoutUsecase,
	logger *zap.Logger,
) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{items: items, carts: carts, checkout: checkout, log: logger.Named("cart_handler")}
}

type cartLineResponse struct {
	MembershipID string        `json:"membershipId"`
	ItemID       string        `json:"itemId"`
	Quantity     int           `json:"quantity"`
	AddedAt      time.Time     `json:"addedAt"`
	Available    bool          `json:"available"`
	Item         *itemResponse `json:"item,omitempty"`
}

type addToCartRequest struct {
	ItemID string `json:"itemId"`
}

// removeRequest accepts membership ids, item ids, or both. Item ids are
// scoped to the caller's own cart.
type removeRequest struct {
	IDs     []string `json:"ids"`
	ItemIDs []string `json:"itemIds"`
}

// GET /v1/me/cart
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.ListCart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	out := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		resp := cartLineResponse{
			MembershipID: l.Membership.ID,
			ItemID:       l.Membership.ItemID,
			Quantity:     l.Membership.Quantity,
			AddedAt:      l.Membership.AddedAt,
			Available:    l.Available,
		}
		if l.Item != nil {
			it := toItemResponse(*l.Item)
			resp.Item = &it
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": out})
}

// POST /v1/me/cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in addToCartRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	res, err := h.items.AddToCart(r.Context(), middleware.IdentityFrom(r.Context()), in.ItemID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	code := http.StatusCreated
	if res.AlreadyInCart {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"membershipId":  res.Membership.ID,
		"itemId":        res.Membership.ItemID,
		"alreadyInCart": res.AlreadyInCart,
	})
}

// DELETE /v1/me/cart/items
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	var in removeRequest
	if err := decodeJSON(r, &in); err != nil && !errors.Is(err, errEmptyBody) {
		badRequest(w, "invalid json")
		return
	}
	in.IDs = append(in.IDs, r.URL.Query()["id"]...)
	in.ItemIDs = append(in.ItemIDs, r.URL.Query()["itemId"]...)

	ids := make([]string, 0, len(in.IDs)+len(in.ItemIDs))
	ids = append(ids, in.IDs...)
	for _, itemID := range in.ItemIDs {
		if itemID = strings.TrimSpace(itemID); itemID != "" {
			ids = append(ids, cartdom.Key(caller.Subject, itemID))
		}
	}

	res, err := h.carts.RemoveFromCart(r.Context(), caller, ids)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Removed: res.Removed})
}

// DELETE /v1/me/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.ClearCart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Removed: res.Removed})
}

type quoteLineResponse struct {
	MembershipID string `json:"membershipId"`
	ItemID       string `json:"itemId"`
	Title        string `json:"title"`
	SellerID     string `json:"sellerId"`
	Price        int    `json:"price"`
}

// POST /v1/me/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	q, err := h.checkout.Quote(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	lines := make([]quoteLineResponse, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, quoteLineResponse(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":    lines,
		"total":    q.Total,
		"repaired": q.Repaired,
	})
}

// GET /v1/me/purchases
func (h *CartHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	ps, err := h.checkout.Purchases(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out := make([]purchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchase(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": out})
}
