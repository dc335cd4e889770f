// internal/platform/di/market/container.go
package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	httpmarket "campusmarket/internal/adapters/in/http/market"
	marketHandler "campusmarket/internal/adapters/in/http/market/handler"
	"campusmarket/internal/adapters/in/http/market/webhook"
	fsrepo "campusmarket/internal/adapters/out/firestore"
	"campusmarket/internal/adapters/out/gcs"
	"campusmarket/internal/adapters/out/mail"
	"campusmarket/internal/adapters/out/memory"
	"campusmarket/internal/adapters/out/secret"
	usecase "campusmarket/internal/application/usecase"
	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
	appcfg "campusmarket/internal/infra/config"
	"campusmarket/internal/infra/firebaseauth"
	shared "campusmarket/internal/platform/di/shared"
)

// Container wires every marketplace component for one process.
type Container struct {
	Engine    *usecase.CartConsistencyUsecase
	Lifecycle *usecase.ItemLifecycleUsecase
	Checkout  *usecase.CheckoutUsecase
	Payment   *usecase.PaymentUsecase
	Admin     *usecase.AdminUsecase

	Handler http.Handler
}

// repos is the storage backend selected by STORE_BACKEND.
type repos struct {
	items     itemdom.Repository
	sales     purchasedom.SaleRecorder
	carts     cartdom.Repository
	purchases purchasedom.Repository
}

func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil || infra.Config == nil {
		return nil, errors.New("di.market: infra is nil")
	}
	cfg := infra.Config
	logger := infra.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := buildRepos(cfg, infra)
	if err != nil {
		return nil, err
	}
	verifier, directory, err := buildIdentity(cfg, infra)
	if err != nil {
		return nil, err
	}
	secrets := secret.NewProviderSM(infra.SecretManager, infra.ProjectID())

	// ---- usecases ----
	engine := usecase.NewCartConsistencyUsecase(r.items, r.carts, logger).WithBatchSize(cfg.PurgeBatchSize)
	lifecycle := usecase.NewItemLifecycleUsecase(usecase.ItemLifecycleDeps{
		Items:    r.items,
		Sales:    r.sales,
		Carts:    r.carts,
		Purger:   engine,
		Notifier: buildNotifier(ctx, cfg, secrets, logger),
		Images:   buildImageResolver(cfg, infra),
		Logger:   logger,
	})
	checkout := usecase.NewCheckoutUsecase(r.carts, r.items, r.purchases, engine, logger)
	payment := usecase.NewPaymentUsecase(lifecycle, r.purchases, engine, logger)
	admin := usecase.NewAdminUsecase(usecase.AdminDeps{
		Items:     r.items,
		Carts:     r.carts,
		Purchases: r.purchases,
		Engine:    engine,
		Lifecycle: lifecycle,
		Directory: directory,
		Logger:    logger,
	})

	// ---- http ----
	webhookSecret := resolveSecret(ctx, secrets, cfg.PaymentWebhookSecret, cfg.PaymentWebhookSecretName, logger)
	if webhookSecret == "" {
		logger.Warn("payment webhook secret not configured; /v1/webhooks/payment will answer 503")
	}
	handler := httpmarket.NewRouter(httpmarket.RouterDeps{
		Items:          marketHandler.NewItemHandler(lifecycle, logger),
		Cart:           marketHandler.NewCartHandler(lifecycle, engine, checkout, logger),
		Admin:          marketHandler.NewAdminHandler(admin, logger),
		Webhook:        webhook.NewPaymentWebhookHandler(payment, webhookSecret, logger),
		Verifier:       verifier,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	return &Container{
		Engine:    engine,
		Lifecycle: lifecycle,
		Checkout:  checkout,
		Payment:   payment,
		Admin:     admin,
		Handler:   handler,
	}, nil
}

func buildRepos(cfg *appcfg.Config, infra *shared.Infra) (repos, error) {
	switch cfg.StoreBackend {
	case appcfg.BackendMemory:
		store := memory.NewStore()
		items := store.Items()
		return repos{items: items, sales: items, carts: store.Carts(), purchases: store.Purchases()}, nil
	case appcfg.BackendFirestore:
		if infra.Firestore == nil || infra.Firestore.Client == nil {
			return repos{}, errors.New("di.market: firestore client is nil")
		}
		client := infra.Firestore.Client
		items := fsrepo.NewItemRepositoryFS(client)
		return repos{
			items:     items,
			sales:     items,
			carts:     fsrepo.NewCartRepositoryFS(client),
			purchases: fsrepo.NewPurchaseRepositoryFS(client),
		}, nil
	default:
		return repos{}, fmt.Errorf("di.market: unknown store backend %q", cfg.StoreBackend)
	}
}

func buildIdentity(cfg *appcfg.Config, infra *shared.Infra) (userdom.Verifier, userdom.Directory, error) {
	switch cfg.AuthMode {
	case appcfg.AuthDev:
		return firebaseauth.DevVerifier{}, firebaseauth.NewDevDirectory(), nil
	case appcfg.AuthFirebase:
		if infra.FirebaseAuth == nil {
			return nil, nil, errors.New("di.market: firebase auth client is nil")
		}
		return firebaseauth.NewVerifier(infra.FirebaseAuth), firebaseauth.NewDirectory(infra.FirebaseAuth), nil
	default:
		return nil, nil, fmt.Errorf("di.market: unknown auth mode %q", cfg.AuthMode)
	}
}

func buildNotifier(ctx context.Context, cfg *appcfg.Config, secrets *secret.ProviderSM, logger *zap.Logger) usecase.ReceiptNotifier {
	key := resolveSecret(ctx, secrets, cfg.SendGridAPIKey, cfg.SendGridAPIKeySecretName, logger)
	if key == "" || cfg.SendGridFrom == "" {
		logger.Info("receipt mail disabled (SENDGRID_API_KEY / SENDGRID_FROM not set)")
		return nil
	}
	return mail.NewReceiptMailer(mail.NewSendGridClient(key, "Campus Market", logger), cfg.SendGridFrom, cfg.SiteBaseURL)
}

func buildImageResolver(cfg *appcfg.Config, infra *shared.Infra) usecase.ImageURLResolver {
	if infra.GCS == nil {
		return nil
	}
	return gcs.NewItemImageSigner(infra.GCS, cfg.ItemImageBucket, cfg.SignedURLTTL)
}

// resolveSecret prefers the literal value and falls back to Secret Manager.
func resolveSecret(ctx context.Context, secrets *secret.ProviderSM, literal, name string, logger *zap.Logger) string {
	if literal != "" || name == "" {
		return literal
	}
	v, err := secrets.Resolve(ctx, name)
	if err != nil {
		logger.Warn("secret not resolved", zap.String("name", name), zap.Error(err))
		return ""
	}
	return v
}
