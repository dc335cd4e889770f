// internal/adapters/in/http/middleware/context.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	userdom "campusmarket/internal/domain/user"
)

type ctxKey int

const (
	ctxKeyIdentity ctxKey = iota
	ctxKeyRequestID
)

// IdentityFrom returns the verified caller, or the zero Identity for
// anonymous requests.
func IdentityFrom(ctx context.Context) userdom.Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(userdom.Identity)
	return id
}

// WithIdentity is exported for tests that bypass Authenticate.
func WithIdentity(ctx context.Context, id userdom.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func RequestIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRequestID).(string)
	return s
}

func writeJSONError(w http.ResponseWriter, code int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}
