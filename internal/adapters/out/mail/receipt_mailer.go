// internal/adapters/out/mail/receipt_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	usecase "campusmarket/internal/application/usecase"
	purchasedom "campusmarket/internal/domain/purchase"
)

// ReceiptMailer sends the buyer a plain-text receipt once a sale commits.
type ReceiptMailer struct {
	client      EmailClient
	fromAddress string
	siteBaseURL string
}

var _ usecase.ReceiptNotifier = (*ReceiptMailer)(nil)

func NewReceiptMailer(client EmailClient, fromAddress, siteBaseURL string) *ReceiptMailer {
	return &ReceiptMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		siteBaseURL: strings.TrimRight(strings.TrimSpace(siteBaseURL), "/"),
	}
}

func (m *ReceiptMailer) SendReceipt(ctx context.Context, p purchasedom.Purchase) error {
	to := strings.TrimSpace(p.BuyerEmail)
	if to == "" {
		return ErrToEmpty
	}
	return m.client.Send(ctx, m.fromAddress, to, receiptSubject(p), m.receiptBody(p))
}

func receiptSubject(p purchasedom.Purchase) string {
	return fmt.Sprintf("Your purchase: %s", p.ItemTitle)
}

func (m *ReceiptMailer) receiptBody(p purchasedom.Purchase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your purchase.\n\n")
	fmt.Fprintf(&b, "Item:   %s\n", p.ItemTitle)
	fmt.Fprintf(&b, "Price:  %d\n", p.Price)
	fmt.Fprintf(&b, "Date:   %s\n", p.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Ref:    %s\n", p.ID)
	if m.siteBaseURL != "" {
		fmt.Fprintf(&b, "\nPurchase history: %s/me/purchases\n", m.siteBaseURL)
	}
	return b.String()
}
