// internal/adapters/in/http/market/webhook/payment_handler.go
package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	usecase "campusmarket/internal/application/usecase"
)

const SecretHeader = "X-Webhook-Secret"

// PaymentWebhookHandler receives payment provider events. The provider
// authenticates with a shared secret header; a non-2xx response makes it
// redeliver, so only dependency failures answer 503.
type PaymentWebhookHandler struct {
	paymentUC *usecase.PaymentUsecase
	secret    string
	log       *zap.Logger
}

func NewPaymentWebhookHandler(paymentUC *usecase.PaymentUsecase, secret string, logger *zap.Logger) *PaymentWebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentWebhookHandler{
		paymentUC: paymentUC,
		secret:    strings.TrimSpace(secret),
		log:       logger.Named("payment_webhook"),
	}
}

type paymentEventInput struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	BuyerID    string   `json:"buyerId"`
	BuyerEmail string   `json:"buyerEmail"`
	ItemIDs    []string `json:"itemIds"`
}

type itemOutcomeOutput struct {
	ItemID    string `json:"itemId"`
	OK        bool   `json:"ok"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

func (h *PaymentWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.paymentUC == nil || h.secret == "" {
		writeJSONError(w, http.StatusServiceUnavailable, usecase.KindDependencyFailure, "payment webhook is not configured")
		return
	}

	got := strings.TrimSpace(r.Header.Get(SecretHeader))
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		h.log.Warn("rejected webhook: bad secret", zap.String("remote", r.RemoteAddr))
		writeJSONError(w, http.StatusUnauthorized, usecase.KindUnauthorized, "invalid webhook secret")
		return
	}

	const maxBody = 1 << 20 // 1MB
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, usecase.KindInvalidInput, "failed to read body")
		return
	}
	_ = r.Body.Close()

	var in paymentEventInput
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, usecase.KindInvalidInput, "invalid json")
		return
	}

	out, err := h.paymentUC.HandleEvent(r.Context(), usecase.PaymentEvent{
		ID:         in.ID,
		Type:       usecase.PaymentEventType(strings.TrimSpace(in.Type)),
		BuyerID:    in.BuyerID,
		BuyerEmail: in.BuyerEmail,
		ItemIDs:    in.ItemIDs,
	})
	if err != nil && usecase.KindOf(err) != usecase.KindDependencyFailure {
		writeJSONError(w, http.StatusBadRequest, usecase.KindOf(err), err.Error())
		return
	}

	items := make([]itemOutcomeOutput, 0, len(out.Items))
	for _, o := range out.Items {
		items = append(items, itemOutcomeOutput{
			ItemID:    o.ItemID,
			OK:        o.Err == nil,
			Duplicate: o.Duplicate,
			Kind:      string(o.Kind),
		})
	}
	resp := map[string]any{
		"eventId": out.EventID,
		"type":    string(out.Type),
		"items":   items,
	}
	if out.CartCleanup.Attempted {
		resp["cleanup"] = map[string]any{
			"ok":      out.CartCleanup.OK(),
			"removed": out.CartCleanup.Removed,
			"warning": out.CartCleanup.Warning(),
		}
	}

	code := http.StatusOK
	if err != nil {
		// at least one item hit a dependency failure: ask for redelivery
		h.log.Error("payment event incomplete", zap.String("eventId", out.EventID), zap.Error(err))
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, kind usecase.Kind, msg string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]string{"kind": string(kind), "message": msg},
	})
}
