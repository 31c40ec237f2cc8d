package accounts

import (
	"context"
	"fmt"
)

// VerificationMailSubject is the subject line of verification messages.
const VerificationMailSubject = "account verification"

// Messenger is the outbound mail capability. Transport (SMTP, queue,
// provider API) is entirely the implementer's concern; the state
// machine only ever calls Send and treats failures as best-effort.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MessengerFunc adapts a function to the Messenger interface.
type MessengerFunc func(ctx context.Context, to, subject, body string) error

// Send implements Messenger.
func (f MessengerFunc) Send(ctx context.Context, to, subject, body string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, body)
}

type noopMessenger struct{}

func (noopMessenger) Send(context.Context, string, string, string) error {
	return nil
}

func normalizeMessenger(m Messenger) Messenger {
	if m == nil {
		return noopMessenger{}
	}
	return m
}

// verificationMailBody renders the URL fragment the recipient follows
// to complete verification.
func verificationMailBody(token, email string) string {
	return fmt.Sprintf("/check-email-token?token=%s&email=%s", token, email)
}
