// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"

	AuthFirebase = "firebase"
	AuthDev      = "dev"

	EnvProduction = "production"
)

// Config holds every environment-derived setting of the service.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`
	AuthMode     string `env:"AUTH_MODE" envDefault:"firebase"`

	GCPProjectID       string `env:"GCP_PROJECT_ID"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID"`
	FirebaseProjectID  string `env:"FIREBASE_PROJECT_ID"`
	CredentialsFile    string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	ItemImageBucket string        `env:"ITEM_IMAGE_BUCKET"`
	SignedURLTTL    time.Duration `env:"SIGNED_URL_TTL" envDefault:"15m"`

	SendGridAPIKey           string `env:"SENDGRID_API_KEY"`
	SendGridAPIKeySecretName string `env:"SENDGRID_API_KEY_SECRET_NAME"`
	SendGridFrom             string `env:"SENDGRID_FROM"`
	SiteBaseURL              string `env:"SITE_BASE_URL"`

	PaymentWebhookSecret     string `env:"PAYMENT_WEBHOOK_SECRET"`
	PaymentWebhookSecretName string `env:"PAYMENT_WEBHOOK_SECRET_NAME"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	PurgeBatchSize int `env:"PURGE_BATCH_SIZE" envDefault:"500"`
}

var (
	ErrInvalidBackend   = errors.New("config: STORE_BACKEND must be firestore or memory")
	ErrInvalidAuthMode  = errors.New("config: AUTH_MODE must be firebase or dev")
	ErrDevAuthInProd    = errors.New("config: AUTH_MODE=dev is not allowed in production")
	ErrMissingProjectID = errors.New("config: project id is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	ErrInvalidBatchSize = errors.New("config: PURGE_BATCH_SIZE must be between 1 and 500")
)

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses an explicit environment map. The process env is ignored.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	c.GCPProjectID = strings.TrimSpace(c.GCPProjectID)
	if strings.TrimSpace(c.FirestoreProjectID) == "" {
		c.FirestoreProjectID = c.GCPProjectID
	}
	if strings.TrimSpace(c.FirebaseProjectID) == "" {
		c.FirebaseProjectID = c.FirestoreProjectID
	}

	origins := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return ErrMissingProjectID
		}
	case BackendMemory:
	default:
		return ErrInvalidBackend
	}

	switch c.AuthMode {
	case AuthFirebase:
		if c.FirebaseProjectID == "" {
			return ErrMissingProjectID
		}
	case AuthDev:
		if c.IsProduction() {
			return ErrDevAuthInProd
		}
	default:
		return ErrInvalidAuthMode
	}

	if c.PurgeBatchSize < 1 || c.PurgeBatchSize > 500 {
		return ErrInvalidBatchSize
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// NeedsGCP reports whether any Google Cloud client has to be built.
func (c *Config) NeedsGCP() bool {
	return c.StoreBackend == BackendFirestore || c.AuthMode == AuthFirebase
}
