// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	appcfg "campusmarket/internal/infra/config"
	firestoreinfra "campusmarket/internal/infra/firestore"
)

// Infra owns the external clients shared by every binary.
// - Firestore and Firebase Auth are strict when the config selects them.
// - GCS and Secret Manager are best effort (warn + continue).
//
// Infra must NOT depend on routers, handlers or usecases.
type Infra struct {
	Config *appcfg.Config
	Logger *zap.Logger

	Firestore     *firestoreinfra.ClientWrapper
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *fbauth.Client
	SecretManager *secretmanager.Client
}

func NewInfra(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("shared.infra")

	inf := &Infra{Config: cfg, Logger: logger}
	if !cfg.NeedsGCP() {
		log.Info("no GCP clients required", zap.String("backend", cfg.StoreBackend), zap.String("auth", cfg.AuthMode))
		return inf, nil
	}

	var clientOpts []option.ClientOption
	if cred := strings.TrimSpace(cfg.CredentialsFile); cred != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cred))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(cred)))
	} else {
		log.Info("using Application Default Credentials")
	}

	// 1) Firestore (strict when selected)
	if cfg.StoreBackend == appcfg.BackendFirestore {
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, log, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.Firestore = fs
	}

	// 2) Firebase App/Auth (strict when selected)
	if cfg.AuthMode == appcfg.AuthFirebase {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: firebase app init: %w", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: firebase auth init: %w", err)
		}
		inf.FirebaseApp, inf.FirebaseAuth = app, authClient
		log.Info("firebase auth initialized", zap.String("project", cfg.FirebaseProjectID))
	}

	// 3) GCS (best effort; only image URL signing needs it)
	if strings.TrimSpace(cfg.ItemImageBucket) != "" {
		gcs, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("storage.NewClient failed; image URLs will not be signed", zap.Error(err))
		} else {
			inf.GCS = gcs
		}
	}

	// 4) Secret Manager (best effort; only used when a secret name is configured)
	if cfg.PaymentWebhookSecretName != "" || cfg.SendGridAPIKeySecretName != "" {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("secretmanager.NewClient failed; secret-backed features may be disabled", zap.Error(err))
		} else {
			inf.SecretManager = sm
		}
	}

	return inf, nil
}

// ProjectID is the project secrets are resolved against.
func (i *Infra) ProjectID() string {
	if i == nil || i.Config == nil {
		return ""
	}
	if i.Config.GCPProjectID != "" {
		return i.Config.GCPProjectID
	}
	return i.Config.FirestoreProjectID
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
		i.SecretManager = nil
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
		i.GCS = nil
	}
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
		i.Firestore = nil
	}
	return errors.Join(errs...)
}

func redactPath(p string) string {
	if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
		return ".../" + p[idx+1:]
	}
	return p
}
