// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ClientWrapper owns a Firestore client and the project it points at.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient uses ADC when opts carry no credentials.
func NewClient(ctx context.Context, projectID string, logger *zap.Logger, opts ...option.ClientOption) (*ClientWrapper, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestoreinfra: create client (project=%s): %w", projectID, err)
	}
	if logger != nil {
		logger.Info("firestore connected", zap.String("project", projectID))
	}
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping lists root collections; Firestore has no dedicated ping RPC.
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return errors.New("firestoreinfra: client is nil")
	}
	if _, err := cw.Client.Collections(ctx).Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestoreinfra: ping: %w", err)
	}
	return nil
}

func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
