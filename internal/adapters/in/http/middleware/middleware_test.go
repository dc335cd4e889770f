package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	userdom "campusmarket/internal/domain/user"
)

type stubVerifier map[string]userdom.Identity

func (s stubVerifier) Verify(_ context.Context, cred string) (userdom.Identity, error) {
	id, ok := s[cred]
	if !ok {
		return userdom.Identity{}, userdom.ErrInvalidCredential
	}
	return id, nil
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(IdentityFrom(r.Context()))
	})
}

func TestAuth_Handler(t *testing.T) {
	auth := &Auth{Verifier: stubVerifier{"tok": {Subject: "u1", Admin: true}}, Logger: zap.NewNop()}
	h := auth.Handler(echoIdentity())

	cases := []struct {
		name   string
		header string
		code   int
		want   userdom.Identity
	}{
		{"anonymous", "", http.StatusOK, userdom.Identity{}},
		{"valid", "Bearer tok", http.StatusOK, userdom.Identity{Subject: "u1", Admin: true}},
		{"invalid", "Bearer nope", http.StatusUnauthorized, userdom.Identity{}},
		{"wrong scheme", "Basic tok", http.StatusUnauthorized, userdom.Identity{}},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, userdom.Identity{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				var got userdom.Identity
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tc.want, got)
			} else {
				assert.Contains(t, w.Body.String(), `"kind":"Unauthorized"`)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(RequestIDFrom(r.Context())))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	provided := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, provided)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, provided, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
