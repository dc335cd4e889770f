// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	ErrAPIKeyEmpty = errors.New("mail: sendgrid api key is empty")
	ErrFromEmpty   = errors.New("mail: from address is empty")
	ErrToEmpty     = errors.New("mail: to address is empty")
)

// EmailClient abstracts the delivery provider.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey   string
	fromName string
	logger   *zap.Logger
}

func NewSendGridClient(apiKey, fromName string, logger *zap.Logger) *SendGridClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridClient{
		apiKey:   strings.TrimSpace(apiKey),
		fromName: strings.TrimSpace(fromName),
		logger:   logger.Named("sendgrid"),
	}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return ErrAPIKeyEmpty
	}
	if strings.TrimSpace(from) == "" {
		return ErrFromEmpty
	}
	if strings.TrimSpace(to) == "" {
		return ErrToEmpty
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	resp, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("send rejected", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("mail: sendgrid send failed: status=%d", resp.StatusCode)
	}

	c.logger.Debug("mail sent", zap.Int("status", resp.StatusCode), zap.String("subject", subject))
	return nil
}
