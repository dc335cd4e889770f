package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcfg "campusmarket/internal/infra/config"
	shared "campusmarket/internal/platform/di/shared"
)

func memoryInfra(t *testing.T, extra map[string]string) *shared.Infra {
	t.Helper()
	env := map[string]string{"STORE_BACKEND": "memory", "AUTH_MODE": "dev"}
	for k, v := range extra {
		env[k] = v
	}
	cfg, err := appcfg.LoadFrom(env)
	require.NoError(t, err)
	inf, err := shared.NewInfra(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	return inf
}

func TestNewContainer_MemoryBackend(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryInfra(t, map[string]string{"PAYMENT_WEBHOOK_SECRET": "s"}))
	require.NoError(t, err)
	require.NotNil(t, c.Handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/items",
		strings.NewReader(`{"title":"Kettle","location":"Dorm A","price":900,"condition":"used","category":"kitchen"}`))
	req.Header.Set("Authorization", "Bearer dev:alice")
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	rep, err := c.Engine.GlobalSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Removed)
}

func TestNewContainer_WebhookDisabledWithoutSecret(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryInfra(t, nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewContainer_NilInfra(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	assert.Error(t, err)
}
