package accounts

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ResendVerificationMessage struct {
	OnResponse func(r *ResendVerificationResponse)
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

type ResendVerificationResponse struct {
	Email       string   `json:"email" example:"user@example.com" doc:"Email the new token was sent to."`
	Sent        bool     `json:"sent" example:"true" doc:"Was a new verification mail dispatched?"`
	RateLimited bool     `json:"rate_limited" example:"false" doc:"Was the request inside the resend threshold?"`
	Errors      []string `json:"errors" example:"['rate limited']" doc:"Error messages."`
}

// ResendVerificationHandler resends the verification mail for the
// account bound to the request context. It has no payload: the target
// account is always the current principal.
type ResendVerificationHandler struct {
	flow VerificationStateMachine
}

func NewResendVerificationHandler(flow VerificationStateMachine) *ResendVerificationHandler {
	return &ResendVerificationHandler{flow: flow}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	resp := &ResendVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, ok := FromContext(ctx)
	if !ok {
		return ErrIdentityNotFound.WithMetadata(map[string]any{"command": event.Type()})
	}

	resp.Email = account.Email

	if err := h.flow.ResendVerification(ctx, account); err != nil {
		// tripping the resend gate is part of the expected flow
		if errors.Is(err, ErrRateLimited) {
			resp.RateLimited = true
			resp.Errors = append(resp.Errors, "rate limited")

			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resend verification mail")
	}

	resp.Sent = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
