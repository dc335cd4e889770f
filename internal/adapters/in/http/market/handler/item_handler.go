// internal/adapters/in/http/market/handler/item_handler.go
package marketHandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"campusmarket/internal/adapters/in/http/middleware"
	usecase "campusmarket/internal/application/usecase"
	itemdom "campusmarket/internal/domain/item"
	userdom "campusmarket/internal/domain/user"
)

// ItemHandler serves /v1/items and /v1/me/items.
type ItemHandler struct {
	uc  *usecase.ItemLifecycleUsecase
	log *zap.Logger
}

func NewItemHandler(uc *usecase.ItemLifecycleUsecase, logger *zap.Logger) *ItemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemHandler{uc: uc, log: logger.Named("item_handler")}
}

// createItemRequest deliberately has no seller field: the seller is always
// the verified caller.
type createItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Price       int      `json:"price"`
	Condition   string   `json:"condition"`
	Category    string   `json:"category"`
	ImageRefs   []string `json:"imageRefs"`
}

type updateItemRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	Price       *int      `json:"price"`
	Condition   *string   `json:"condition"`
	Category    *string   `json:"category"`
	ImageRefs   *[]string `json:"imageRefs"`
}

func (in updateItemRequest) patch() itemdom.DetailsPatch {
	p := itemdom.DetailsPatch{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Price:       in.Price,
		ImageRefs:   in.ImageRefs,
	}
	if in.Condition != nil {
		c := itemdom.Condition(strings.TrimSpace(*in.Condition))
		p.Condition = &c
	}
	if in.Category != nil {
		c := itemdom.Category(strings.TrimSpace(*in.Category))
		p.Category = &c
	}
	return p
}

// GET /v1/items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := readPage(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sort, err := readSort(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	category := itemdom.Category(strings.TrimSpace(r.URL.Query().Get("category")))

	res, err := h.uc.ListItems(r.Context(), category, sort, page)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemPage(res))
}

// GET /v1/me/items
func (h *ItemHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, err := readPage(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.uc.ListMine(r.Context(), middleware.IdentityFrom(r.Context()), readStatuses(r), page)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemPage(res))
}

// POST /v1/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in createItemRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	it, err := h.uc.CreateItem(r.Context(), middleware.IdentityFrom(r.Context()), itemdom.Details{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Price:       in.Price,
		Condition:   itemdom.Condition(strings.TrimSpace(in.Condition)),
		Category:    itemdom.Category(strings.TrimSpace(in.Category)),
		ImageRefs:   in.ImageRefs,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

// GET /v1/items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.GetItem(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	resp := toItemResponse(view.Item)
	resp.ImageURLs = view.ImageURLs
	writeJSON(w, http.StatusOK, resp)
}

// PATCH /v1/items/{id}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in updateItemRequest
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}
	it, err := h.uc.UpdateDetails(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"), in.patch())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

// DELETE /v1/items/{id}
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.Delete(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      res.ItemID,
		"deleted": true,
		"cleanup": toCleanup(res.Cleanup),
	})
}

// POST /v1/items/{id}/publish
func (h *ItemHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.uc.Publish)
}

// POST /v1/items/{id}/unpublish
func (h *ItemHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.uc.Unpublish)
}

// POST /v1/items/{id}/withdraw
func (h *ItemHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.uc.Withdraw)
}

type callerTransition func(ctx context.Context, caller userdom.Identity, itemID string) (usecase.LifecycleResult, error)

func (h *ItemHandler) transition(w http.ResponseWriter, r *http.Request, fn callerTransition) {
	res, err := fn(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toLifecycle(res))
}
