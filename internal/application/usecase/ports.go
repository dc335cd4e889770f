// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"strings"
	"time"

	purchasedom "campusmarket/internal/domain/purchase"
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ReceiptNotifier delivers the buyer receipt after a sale commits.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, p purchasedom.Purchase) error
}

// ImageURLResolver turns stored image references into URLs a browser can load.
type ImageURLResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}

// CartPurger is the slice of the cart consistency engine the lifecycle
// coordinator depends on.
type CartPurger interface {
	PurgeByItem(ctx context.Context, itemID string) (PurgeResult, error)
}

func maskID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:4] + "***" + id[len(id)-4:]
}
