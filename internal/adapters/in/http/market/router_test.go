package market_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusmarket/internal/adapters/in/http/market"
	marketHandler "campusmarket/internal/adapters/in/http/market/handler"
	"campusmarket/internal/adapters/in/http/market/webhook"
	"campusmarket/internal/adapters/out/memory"
	usecase "campusmarket/internal/application/usecase"
	"campusmarket/internal/infra/firebaseauth"
)

const (
	seller = "Bearer dev:seller"
	bob    = "Bearer dev:bob"
	admin  = "Bearer dev:root:admin"
	secret = "whsec-test"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	items, carts, purchases := store.Items(), store.Carts(), store.Purchases()

	engine := usecase.NewCartConsistencyUsecase(items, carts, logger)
	lifecycle := usecase.NewItemLifecycleUsecase(usecase.ItemLifecycleDeps{
		Items:  items,
		Sales:  items,
		Carts:  carts,
		Purger: engine,
		Logger: logger,
	})
	checkout := usecase.NewCheckoutUsecase(carts, items, purchases, engine, logger)
	payment := usecase.NewPaymentUsecase(lifecycle, purchases, engine, logger)
	adminUC := usecase.NewAdminUsecase(usecase.AdminDeps{
		Items:     items,
		Carts:     carts,
		Purchases: purchases,
		Engine:    engine,
		Lifecycle: lifecycle,
		Directory: firebaseauth.NewDevDirectory(),
		Logger:    logger,
	})

	return market.NewRouter(market.RouterDeps{
		Items:    marketHandler.NewItemHandler(lifecycle, logger),
		Cart:     marketHandler.NewCartHandler(lifecycle, engine, checkout, logger),
		Admin:    marketHandler.NewAdminHandler(adminUC, logger),
		Webhook:  webhook.NewPaymentWebhookHandler(payment, secret, logger),
		Verifier: firebaseauth.DevVerifier{},
		Logger:   logger,
	})
}

type call struct {
	method string
	path   string
	auth   string
	body   any
	header map[string]string
}

func do(t *testing.T, h http.Handler, c call) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func errorKind(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	k, _ := e["kind"].(string)
	return k
}

var deskLamp = map[string]any{
	"title":     "Desk lamp",
	"location":  "Library",
	"price":     1500,
	"condition": "used",
	"category":  "electronics",
}

// createListed creates and publishes an item as seller, returning its id.
func createListed(t *testing.T, h http.Handler) string {
	t.Helper()
	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/items", auth: seller, body: deskLamp})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/publish", auth: seller})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "for-sale", body["item"].(map[string]any)["status"])
	return id
}

func TestHealthz(t *testing.T) {
	h := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateItem_IgnoresForgedSeller(t *testing.T) {
	h := newServer(t)
	forged := map[string]any{}
	for k, v := range deskLamp {
		forged[k] = v
	}
	forged["sellerId"] = "bob"
	forged["status"] = "sold"

	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/items", auth: seller, body: forged})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "seller", body["sellerId"])
	assert.Equal(t, "draft", body["status"])
}

func TestAuthFailures(t *testing.T) {
	h := newServer(t)

	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/items", body: deskLamp})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", errorKind(body))

	code, _ = do(t, h, call{method: http.MethodGet, path: "/v1/items", auth: "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, code)

	// public catalogue stays open to anonymous callers
	code, body = do(t, h, call{method: http.MethodGet, path: "/v1/items"})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "items")
}

func TestPublish_StatusMapping(t *testing.T) {
	h := newServer(t)
	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/items", auth: seller, body: deskLamp})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/publish", auth: bob})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Forbidden", errorKind(body))

	code, _ = do(t, h, call{method: http.MethodPost, path: "/v1/items/nope/publish", auth: seller})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/publish"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/withdraw", auth: seller})
	require.Equal(t, http.StatusOK, code)
	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/publish", auth: seller})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Conflict", errorKind(body))
}

func TestCartFlow_WithdrawPurgesCart(t *testing.T) {
	h := newServer(t)
	id := createListed(t, h)

	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: bob, body: map[string]string{"itemId": id}})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, body["alreadyInCart"])

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: bob, body: map[string]string{"itemId": id}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["alreadyInCart"])

	code, _ = do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: seller, body: map[string]string{"itemId": id}})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/items/" + id + "/withdraw", auth: seller})
	require.Equal(t, http.StatusOK, code)
	cleanup := body["cleanup"].(map[string]any)
	assert.Equal(t, true, cleanup["ok"])
	assert.EqualValues(t, 1, cleanup["removed"])

	code, body = do(t, h, call{method: http.MethodGet, path: "/v1/me/cart", auth: bob})
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["lines"])
}

func TestCart_RemoveForeignIDsIsForbidden(t *testing.T) {
	h := newServer(t)
	id := createListed(t, h)
	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: bob, body: map[string]string{"itemId": id}})
	require.Equal(t, http.StatusCreated, code)
	membership := body["membershipId"].(string)

	code, _ = do(t, h, call{method: http.MethodDelete, path: "/v1/me/cart/items", auth: seller, body: map[string]any{"ids": []string{membership}}})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = do(t, h, call{method: http.MethodDelete, path: "/v1/me/cart/items", auth: bob, body: map[string]any{"itemIds": []string{id}}})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["removed"])
}

func TestCheckoutAndWebhookSale(t *testing.T) {
	h := newServer(t)
	id := createListed(t, h)
	do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: bob, body: map[string]string{"itemId": id}})

	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/me/checkout", auth: bob})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1500, body["total"])

	event := map[string]any{"id": "evt_1", "type": "payment.succeeded", "buyerId": "bob", "itemIds": []string{id}}

	code, _ = do(t, h, call{method: http.MethodPost, path: "/v1/webhooks/payment", body: event,
		header: map[string]string{webhook.SecretHeader: "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/webhooks/payment", body: event,
		header: map[string]string{webhook.SecretHeader: secret}})
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0].(map[string]any)["ok"])
	assert.EqualValues(t, 1, body["cleanup"].(map[string]any)["removed"])

	// replay
	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/webhooks/payment", body: event,
		header: map[string]string{webhook.SecretHeader: secret}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["items"].([]any)[0].(map[string]any)["duplicate"])

	code, body = do(t, h, call{method: http.MethodGet, path: "/v1/items/" + id})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sold", body["status"])
	assert.Equal(t, "bob", body["buyerId"])

	code, _ = do(t, h, call{method: http.MethodDelete, path: "/v1/items/" + id, auth: seller})
	assert.Equal(t, http.StatusConflict, code)

	code, body = do(t, h, call{method: http.MethodGet, path: "/v1/me/purchases", auth: bob})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["purchases"], 1)
}

func TestWebhook_InvalidEvent(t *testing.T) {
	h := newServer(t)
	code, body := do(t, h, call{method: http.MethodPost, path: "/v1/webhooks/payment",
		body:   map[string]any{"type": "payment.refunded", "itemIds": []string{"x"}},
		header: map[string]string{webhook.SecretHeader: secret}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidInput", errorKind(body))
}

func TestAdminRoutes(t *testing.T) {
	h := newServer(t)
	id := createListed(t, h)
	do(t, h, call{method: http.MethodPost, path: "/v1/me/cart/items", auth: bob, body: map[string]string{"itemId": id}})

	code, _ := do(t, h, call{method: http.MethodGet, path: "/v1/admin/stats", auth: bob})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := do(t, h, call{method: http.MethodGet, path: "/v1/admin/stats", auth: admin})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["itemsTotal"])
	assert.EqualValues(t, 1, body["cartMemberships"])

	code, body = do(t, h, call{method: http.MethodPost, path: "/v1/admin/sweep", auth: admin})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["removed"])

	code, body = do(t, h, call{method: http.MethodDelete, path: "/v1/admin/users/seller", auth: admin})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["withdrawn"])
	assert.Equal(t, true, body["accountDeleted"])

	code, body = do(t, h, call{method: http.MethodGet, path: "/v1/me/cart", auth: bob})
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["lines"])
}

func TestListItems_InvalidQuery(t *testing.T) {
	h := newServer(t)
	code, _ := do(t, h, call{method: http.MethodGet, path: "/v1/items?sort=title"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, h, call{method: http.MethodGet, path: "/v1/items?page=x"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, h, call{method: http.MethodGet, path: "/v1/items?category=weapons"})
	assert.Equal(t, http.StatusBadRequest, code)
}
