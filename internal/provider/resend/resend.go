// Package resend implements a Provider that delivers a bulk message through
// the Resend API, one email per recipient.
package resend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v3"

	"github.com/shineum/bulkmail-lite/internal/email"
)

// Config holds Resend provider configuration.
type Config struct {
	APIKey string
	Sender string
}

// sendFunc submits one email request.
type sendFunc func(ctx context.Context, req *resend.SendEmailRequest) error

// Provider sends emails via the Resend API.
type Provider struct {
	sender string
	send   sendFunc
}

// New creates a Provider backed by a Resend client.
func New(cfg Config) *Provider {
	client := resend.NewClient(cfg.APIKey)
	return &Provider{
		sender: cfg.Sender,
		send: func(ctx context.Context, req *resend.SendEmailRequest) error {
			_, err := client.Emails.SendWithContext(ctx, req)
			return err
		},
	}
}

// newWithSend creates a Provider with a custom send function, used for testing.
func newWithSend(sender string, send sendFunc) *Provider {
	return &Provider{sender: sender, send: send}
}

// Send delivers msg to each recipient in order with a single attempt each.
// Rejected recipients are reported as failed. An error is returned only if
// ctx ends before every recipient was tried.
func (p *Provider) Send(ctx context.Context, msg *email.Message) ([]email.Result, error) {
	results := make([]email.Result, 0, len(msg.Recipients))

	for _, rcpt := range msg.Recipients {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dispatch interrupted after %d of %d recipients: %w",
				len(results), len(msg.Recipients), err)
		}

		req := &resend.SendEmailRequest{
			From:    p.sender,
			To:      []string{rcpt},
			Subject: msg.Subject,
			Text:    msg.Text,
		}

		status := email.StatusSuccess
		if err := p.send(ctx, req); err != nil {
			slog.Warn("resend: failed to send email",
				"recipient", rcpt,
				"error", err,
			)
			status = email.StatusFailed
		}
		results = append(results, email.Result{Email: rcpt, Status: status})
	}

	return results, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "resend"
}
