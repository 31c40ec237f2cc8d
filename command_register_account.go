package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

type RegisterAccountMessage struct {
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Password  string `json:"password"`
	UseHashid bool
	// AutoLogin establishes a session for the new account right after
	// registration, the way the signup form flow does.
	AutoLogin bool
	OnAccount func(a *Account)
	OnSession func(ctx context.Context, s *SessionObject)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountHandler struct {
	flow   VerificationStateMachine
	auther SessionEstablisher
}

func NewRegisterAccountHandler(flow VerificationStateMachine) *RegisterAccountHandler {
	return &RegisterAccountHandler{flow: flow}
}

// WithSessionEstablisher wires the trust surface used for AutoLogin.
func (h *RegisterAccountHandler) WithSessionEstablisher(auther SessionEstablisher) *RegisterAccountHandler {
	h.auther = auther
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	data := SignupData{
		Email:    event.Email,
		Nickname: event.Nickname,
		Password: event.Password,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			data.ID = id
		}
	}

	account, err := h.flow.Register(ctx, data)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	if event.OnAccount != nil {
		event.OnAccount(account)
	}

	if event.AutoLogin && h.auther != nil {
		sessionCtx, session, err := h.auther.EstablishSession(ctx, account)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to establish session after registration")
		}
		if event.OnSession != nil {
			event.OnSession(sessionCtx, session)
		}
	}

	return nil
}
