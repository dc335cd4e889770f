// internal/adapters/in/http/market/handler/admin_handler.go
package marketHandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"campusmarket/internal/adapters/in/http/middleware"
	usecase "campusmarket/internal/application/usecase"
)

// AdminHandler serves /v1/admin. Every route requires the admin claim; the
// usecase enforces it.
type AdminHandler struct {
	uc  *usecase.AdminUsecase
	log *zap.Logger
}

func NewAdminHandler(uc *usecase.AdminUsecase, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{uc: uc, log: logger.Named("admin_handler")}
}

// POST /v1/admin/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	rep, err := h.uc.Sweep(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"scanned":      rep.Scanned,
		"itemsChecked": rep.ItemsChecked,
		"stale":        rep.Stale,
		"removed":      rep.Removed,
	})
}

// POST /v1/admin/items/{id}/purge-cart
func (h *AdminHandler) PurgeItem(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.PurgeItem(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Removed: res.Removed})
}

// DELETE /v1/admin/users/{uid}
func (h *AdminHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	rep, err := h.uc.RemoveUser(r.Context(), middleware.IdentityFrom(r.Context()), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	warnings := rep.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":         rep.UserID,
		"withdrawn":      rep.Withdrawn,
		"cartRemoved":    rep.CartRemoved,
		"accountDeleted": rep.AccountDeleted,
		"warnings":       warnings,
	})
}

// GET /v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.uc.Stats(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	byStatus := make(map[string]int, len(st.ItemsByStatus))
	for s, n := range st.ItemsByStatus {
		byStatus[string(s)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"itemsByStatus":   byStatus,
		"itemsTotal":      st.ItemsTotal,
		"cartMemberships": st.CartMemberships,
		"purchases":       st.Purchases,
	})
}
