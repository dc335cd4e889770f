// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	userdom "campusmarket/internal/domain/user"
)

// Auth verifies "Authorization: Bearer <token>" and stores the Identity in
// the request context. A request without the header passes through as
// anonymous; the usecases decide whether that is acceptable. A header that
// does not verify is rejected here.
type Auth struct {
	Verifier userdom.Verifier
	Logger   *zap.Logger
}

func (m *Auth) Handler(next http.Handler) http.Handler {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("auth")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if m.Verifier == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "DependencyFailure", "auth middleware not initialized")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		id, err := m.Verifier.Verify(r.Context(), token)
		if err != nil || !id.Valid() {
			logger.Debug("token rejected", zap.Int("len", len(token)), zap.Error(err))
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
