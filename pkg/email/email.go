package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Sender is the outbound email transport. Best-effort: one attempt per
// call, no retries.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) Sender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *resendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	logrus.WithFields(logrus.Fields{
		"email_id": sent.Id,
		"to":       to,
	}).Debug("Email sent")
	return nil
}

// noopSender is used when email is disabled in config. Sends succeed
// without doing anything, so delivery accounting still runs end to end.
type noopSender struct{}

func NewNoopSender() Sender {
	return noopSender{}
}

func (noopSender) Send(ctx context.Context, to, subject, html string) error {
	logrus.WithField("to", to).Debug("Email disabled, skipping send")
	return nil
}
