package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordChanger is the narrow authenticator surface the update
// password command needs. *Auther satisfies it.
type PasswordChanger interface {
	UpdatePassword(ctx context.Context, account *Account, newPassword string) error
}

type UpdatePasswordMessage struct {
	PasswordUpdate
	OnResponse func(r *UpdatePasswordResponse)
}

func (e UpdatePasswordMessage) Type() string { return "account.update_password" }

type UpdatePasswordResponse struct {
	Updated bool     `json:"updated" example:"true" doc:"Was the password changed?"`
	Errors  []string `json:"errors" example:"['value does not match']" doc:"Error messages."`
}

// UpdatePasswordHandler changes the password of the account bound to
// the request context. The payload carries the confirmation field so
// mismatched entries are rejected before anything is re-hashed.
type UpdatePasswordHandler struct {
	auther PasswordChanger
}

func NewUpdatePasswordHandler(auther PasswordChanger) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{auther: auther}
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	resp := &UpdatePasswordResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, ok := FromContext(ctx)
	if !ok {
		return ErrIdentityNotFound.WithMetadata(map[string]any{"command": event.Type()})
	}

	if err := event.PasswordUpdate.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password update payload")
	}

	if err := h.auther.UpdatePassword(ctx, account, event.NewPassword); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	resp.Updated = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
