package accounts

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Email      string `json:"email" doc:"Email the verification token was issued for."`
	Token      string `json:"token" doc:"Verification token from the mail link."`
	OnResponse func(r *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailResponse struct {
	Found         bool     `json:"found" example:"true" doc:"Is there an account for this email?"`
	Verified      bool     `json:"verified" example:"true" doc:"Is the account verified after this request?"`
	Nickname      string   `json:"nickname" example:"goliatone" doc:"Nickname of the verified account."`
	TotalAccounts int      `json:"total_accounts" example:"42" doc:"Total number of registered accounts."`
	Errors        []string `json:"errors" example:"['wrong email']" doc:"Error messages."`
}

type VerifyEmailHandler struct {
	flow VerificationStateMachine
}

func NewVerifyEmailHandler(flow VerificationStateMachine) *VerifyEmailHandler {
	return &VerifyEmailHandler{flow: flow}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result, err := h.flow.Verify(ctx, event.Email, event.Token)
	if err != nil {
		// an unknown email or a stale token is part of the expected
		// flow, not an application error
		switch {
		case errors.Is(err, ErrUnknownAccount):
			resp.Found = false
			resp.Errors = append(resp.Errors, "wrong email")
		case errors.Is(err, ErrTokenMismatch):
			resp.Found = true
			resp.Errors = append(resp.Errors, "wrong email")
		default:
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute email verification")
		}

		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	resp.Found = true
	resp.Verified = true
	resp.Nickname = result.Nickname
	resp.TotalAccounts = result.TotalAccounts

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
