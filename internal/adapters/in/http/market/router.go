// internal/adapters/in/http/market/router.go
package market

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	marketHandler "campusmarket/internal/adapters/in/http/market/handler"
	"campusmarket/internal/adapters/in/http/market/webhook"
	"campusmarket/internal/adapters/in/http/middleware"
	userdom "campusmarket/internal/domain/user"
)

// RouterDeps carries the handlers and cross-cutting pieces the router needs.
type RouterDeps struct {
	Items   *marketHandler.ItemHandler
	Cart    *marketHandler.CartHandler
	Admin   *marketHandler.AdminHandler
	Webhook *webhook.PaymentWebhookHandler

	Verifier       userdom.Verifier
	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// CORS must wrap Recover so error responses stay readable by the browser.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Webhook != nil {
		r.Method(http.MethodPost, "/v1/webhooks/payment", d.Webhook)
	}

	auth := &middleware.Auth{Verifier: d.Verifier, Logger: logger}
	r.Group(func(r chi.Router) {
		r.Use(auth.Handler)

		r.Route("/v1/items", func(r chi.Router) {
			r.Get("/", d.Items.List)
			r.Post("/", d.Items.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Items.Get)
				r.Patch("/", d.Items.Update)
				r.Delete("/", d.Items.Delete)
				r.Post("/publish", d.Items.Publish)
				r.Post("/unpublish", d.Items.Unpublish)
				r.Post("/withdraw", d.Items.Withdraw)
			})
		})

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/items", d.Items.ListMine)
			r.Get("/cart", d.Cart.List)
			r.Delete("/cart", d.Cart.Clear)
			r.Post("/cart/items", d.Cart.Add)
			r.Delete("/cart/items", d.Cart.Remove)
			r.Post("/checkout", d.Cart.Checkout)
			r.Get("/purchases", d.Cart.Purchases)
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Post("/sweep", d.Admin.Sweep)
			r.Post("/items/{id}/purge-cart", d.Admin.PurgeItem)
			r.Delete("/users/{uid}", d.Admin.RemoveUser)
			r.Get("/stats", d.Admin.Stats)
		})
	})

	return r
}
