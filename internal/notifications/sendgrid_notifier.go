package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridNotifier struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

func NewSendGridNotifier(apiKey, fromAddr, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (n *SendGridNotifier) Send(ctx context.Context, msg Message) (string, error) {
	from := mail.NewEmail(n.fromName, n.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}

	// 4xx/5xx come back as a response, not an error
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
