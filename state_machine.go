package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// VerificationState labels where an account sits in its lifecycle.
type VerificationState string

const (
	// StateUnverified is the state every account starts in.
	StateUnverified VerificationState = "unverified"
	// StateVerified is terminal. There is no transition back.
	StateVerified VerificationState = "verified"
)

// VerificationResult is returned by Verify for caller display. It is
// produced on every successful branch, including the idempotent replay
// of an already verified account.
type VerificationResult struct {
	Account       *Account
	Nickname      string
	TotalAccounts int
	Session       *SessionObject
	// Ctx carries the principal bound by the auto-login that follows a
	// successful verification.
	Ctx context.Context
}

// VerificationStateMachine owns the unverified to verified transition,
// token validation, and resend rate limiting.
type VerificationStateMachine interface {
	Register(ctx context.Context, data SignupData) (*Account, error)
	Verify(ctx context.Context, email, token string) (*VerificationResult, error)
	CanResend(account *Account) bool
	ResendVerification(ctx context.Context, account *Account) error
	CurrentState(account *Account) VerificationState
}

// VerificationOption customizes state machine construction.
type VerificationOption func(*verificationStateMachine)

// WithVerificationClock injects a custom clock (useful for tests).
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(sm *verificationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithVerificationActivitySink sets the ActivitySink used to publish
// lifecycle events.
func WithVerificationActivitySink(sink ActivitySink) VerificationOption {
	return func(sm *verificationStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithVerificationLogger overrides the logger.
func WithVerificationLogger(logger Logger) VerificationOption {
	return func(sm *verificationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithMessenger sets the outbound mail collaborator.
func WithMessenger(messenger Messenger) VerificationOption {
	return func(sm *verificationStateMachine) {
		sm.messenger = normalizeMessenger(messenger)
	}
}

// WithTokenIssuer overrides the verification token source.
func WithTokenIssuer(issuer *TokenIssuer) VerificationOption {
	return func(sm *verificationStateMachine) {
		if issuer != nil {
			sm.tokens = issuer
		}
	}
}

// NewVerificationStateMachine returns the default implementation backed
// by the provided store. The authenticator is consulted on successful
// verification to establish a session for the account (auto-login).
func NewVerificationStateMachine(store AccountStore, authenticator SessionEstablisher, opts ...VerificationOption) VerificationStateMachine {
	sm := &verificationStateMachine{
		store:         store,
		authenticator: authenticator,
		tokens:        NewTokenIssuer(),
		messenger:     noopMessenger{},
		now:           time.Now,
		activitySink:  noopActivitySink{},
		logger:        defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type verificationStateMachine struct {
	store         AccountStore
	authenticator SessionEstablisher
	tokens        *TokenIssuer
	messenger     Messenger
	now           func() time.Time
	activitySink  ActivitySink
	logger        Logger
}

// Register creates a new unverified account, issues its first
// verification token, and dispatches the verification message.
//
// Uniqueness is pre-checked against the store for early, field-specific
// feedback, but the storage layer's unique constraints remain the
// authority: a registration that loses the race between check and
// insert still comes back as the matching duplicate kind.
func (sm *verificationStateMachine) Register(ctx context.Context, data SignupData) (*Account, error) {
	if err := data.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	if _, err := sm.store.GetByEmail(ctx, data.Email); err == nil {
		return nil, ErrDuplicateEmail.WithMetadata(map[string]any{"email": data.Email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}

	if _, err := sm.store.GetByNickname(ctx, data.Nickname); err == nil {
		return nil, ErrDuplicateNickname.WithMetadata(map[string]any{"nickname": data.Nickname})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check nickname uniqueness")
	}

	hash, err := HashPassword(data.Password)
	if err != nil {
		return nil, err
	}

	token, issuedAt := sm.tokens.Issue()

	account := &Account{
		ID:           data.ID,
		Email:        data.Email,
		Nickname:     data.Nickname,
		PasswordHash: hash,
	}
	account.SetVerificationToken(token, issuedAt)

	account, err = sm.store.Register(ctx, account)
	if err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"nickname": account.Nickname},
	})

	// the account is already persisted; notification failure must not
	// undo that, so mail goes out best-effort
	sm.dispatchVerificationMail(ctx, account)

	return account, nil
}

// Verify validates the token for the account registered under email and
// moves the account to its verified state.
//
// An already verified account replaying a valid token is a no-op
// success: VerifiedAt is untouched and a session is still established.
func (sm *verificationStateMachine) Verify(ctx context.Context, email, token string) (*VerificationResult, error) {
	account, err := sm.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnknownAccount.WithMetadata(map[string]any{"email": email})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account for verification")
	}

	if !account.IsValidToken(token) {
		return nil, ErrTokenMismatch.WithMetadata(map[string]any{"email": email})
	}

	firstTransition := !account.Verified
	if firstTransition {
		now := sm.now()
		account.CompleteVerification(now)

		updated, err := sm.store.MarkVerified(ctx, account.ID, now)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verified state")
		}
		if updated != nil {
			account = updated
		}

		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventAccountVerified,
			Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
			AccountID: account.ID.String(),
			Metadata:  map[string]any{"nickname": account.Nickname},
		})
	}

	authCtx, session, err := sm.authenticator.EstablishSession(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to establish session after verification")
	}

	total, err := sm.store.Count(ctx)
	if err != nil {
		sm.logger.Warn("failed to count accounts for verification result", "error", err)
		total = 0
	}

	return &VerificationResult{
		Account:       account,
		Nickname:      account.Nickname,
		TotalAccounts: total,
		Session:       session,
		Ctx:           authCtx,
	}, nil
}

// CanResend is true only when the account's last verification token is
// older than ResendThreshold.
func (sm *verificationStateMachine) CanResend(account *Account) bool {
	if account == nil {
		return false
	}
	return account.CanResendVerification(sm.now())
}

// ResendVerification issues a fresh token and dispatches a new
// verification message. The rate limit is a hard gate: when it trips,
// state is left unchanged.
func (sm *verificationStateMachine) ResendVerification(ctx context.Context, account *Account) error {
	if account == nil {
		return ErrIdentityNotFound
	}

	if !sm.CanResend(account) {
		return ErrRateLimited.WithMetadata(map[string]any{
			"account_id":      account.ID.String(),
			"token_issued_at": account.TokenIssuedAt,
		})
	}

	token, issuedAt := sm.tokens.Issue()

	if err := sm.store.StoreVerification(ctx, account.ID, token, issuedAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verification token")
	}

	account.SetVerificationToken(token, issuedAt)

	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventVerificationResent,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
	})

	sm.dispatchVerificationMail(ctx, account)

	return nil
}

// CurrentState reports which side of the terminal transition the
// account is on.
func (sm *verificationStateMachine) CurrentState(account *Account) VerificationState {
	if account != nil && account.Verified {
		return StateVerified
	}
	return StateUnverified
}

func (sm *verificationStateMachine) dispatchVerificationMail(ctx context.Context, account *Account) {
	body := verificationMailBody(account.VerificationToken, account.Email)
	if err := sm.messenger.Send(ctx, account.Email, VerificationMailSubject, body); err != nil {
		sm.logger.Error("failed to dispatch verification mail",
			"account_id", account.ID.String(),
			"error", err,
		)
	}
}

func (sm *verificationStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}
