package notifications

import (
	"context"
	"log/slog"
	"time"
)

// Message is one outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a message and returns the provider message id when the
// provider reports one.
type Notifier interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Select returns the SendGrid notifier when an API key is configured and the
// log notifier otherwise, wrapped in a timeout and circuit breaker.
func Select(apiKey, fromAddr, fromName string, log *slog.Logger) Notifier {
	var inner Notifier
	if apiKey != "" {
		inner = NewSendGridNotifier(apiKey, fromAddr, fromName)
	} else {
		inner = NewLogNotifier(log)
	}

	return NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	})
}
