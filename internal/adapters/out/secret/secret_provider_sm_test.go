package secret

import (
	"context"
	"testing"

	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccessor struct{ mock.Mock }

func (m *mockAccessor) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	args := m.Called(req.GetName())
	resp, _ := args.Get(0).(*secretmanagerpb.AccessSecretVersionResponse)
	return resp, args.Error(1)
}

func payload(s string) *secretmanagerpb.AccessSecretVersionResponse {
	return &secretmanagerpb.AccessSecretVersionResponse{Payload: &secretmanagerpb.SecretPayload{Data: []byte(s)}}
}

func TestProviderSM_Resolve(t *testing.T) {
	acc := new(mockAccessor)
	acc.On("AccessSecretVersion", "projects/p1/secrets/webhook/versions/latest").Return(payload(" s3cr3t\n"), nil)
	acc.On("AccessSecretVersion", "projects/p2/secrets/key/versions/4").Return(payload("k"), nil)
	acc.On("AccessSecretVersion", "projects/p1/secrets/blank/versions/latest").Return(payload("  "), nil)

	p := &ProviderSM{sm: acc, projectID: "p1"}
	ctx := context.Background()

	v, err := p.Resolve(ctx, "webhook")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", v)

	v, err = p.Resolve(ctx, "projects/p2/secrets/key/versions/4")
	require.NoError(t, err)
	assert.Equal(t, "k", v)

	_, err = p.Resolve(ctx, "blank")
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = p.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestProviderSM_NotConfigured(t *testing.T) {
	_, err := NewProviderSM(nil, "p1").Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
