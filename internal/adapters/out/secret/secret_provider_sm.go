// internal/adapters/out/secret/secret_provider_sm.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

var (
	ErrNotConfigured = errors.New("secret: provider not configured")
	ErrEmptyName     = errors.New("secret: secret name is empty")
	ErrEmptyPayload  = errors.New("secret: empty payload")
)

type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// ProviderSM reads secret payloads from Secret Manager.
type ProviderSM struct {
	sm        accessor
	projectID string
}

func NewProviderSM(sm *secretmanager.Client, projectID string) *ProviderSM {
	if sm == nil {
		return &ProviderSM{projectID: strings.TrimSpace(projectID)}
	}
	return &ProviderSM{sm: sm, projectID: strings.TrimSpace(projectID)}
}

// Resolve accepts either a short secret id ("payment-webhook") or a full
// resource name ("projects/p/secrets/s/versions/3"). Short ids read "latest".
func (p *ProviderSM) Resolve(ctx context.Context, name string) (string, error) {
	if p == nil || p.sm == nil {
		return "", ErrNotConfigured
	}
	full, err := p.resourceName(name)
	if err != nil {
		return "", err
	}

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: full})
	if err != nil {
		return "", fmt.Errorf("secret: access %s: %w", full, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("%w (%s)", ErrEmptyPayload, full)
	}
	v := strings.TrimSpace(string(resp.Payload.Data))
	if v == "" {
		return "", fmt.Errorf("%w (%s)", ErrEmptyPayload, full)
	}
	return v, nil
}

func (p *ProviderSM) resourceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.HasPrefix(name, "projects/") {
		if !strings.Contains(name, "/versions/") {
			name += "/versions/latest"
		}
		return name, nil
	}
	if p.projectID == "" {
		return "", errors.New("secret: projectID is empty")
	}
	return "projects/" + p.projectID + "/secrets/" + name + "/versions/latest", nil
}
