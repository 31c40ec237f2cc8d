package accounts

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Auther binds verified credentials to session principals. Besides
// explicit Login, the only way to establish a session is
// EstablishSession, the trust path the verification state machine uses
// after a successful token check.
type Auther struct {
	provider        IdentityProvider
	accounts        AccountMutator
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	activitySink    ActivitySink
	now             func() time.Time
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
		now:             time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithAccountMutator wires the store surface used by password and
// profile updates.
func (s *Auther) WithAccountMutator(accounts AccountMutator) *Auther {
	s.accounts = accounts
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the identifier/password pair and, on success, returns
// a context carrying the bound principal plus the session itself. On
// failure the returned context is the unchanged input and no principal
// is bound.
func (s *Auther) Login(ctx context.Context, identifier, password string) (context.Context, *SessionObject, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return ctx, nil, err
	}

	if identity == nil {
		s.logger.Error("Login identity is nil")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return ctx, nil, ErrMismatchedHashAndPassword
	}

	session := s.newSession(identity)

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return WithSessionContext(ctx, session), session, nil
}

// EstablishSession directly binds the account as the current principal
// without a password check. Callers are trusted: the verification state
// machine after a successful token check, and registration auto-login.
func (s *Auther) EstablishSession(ctx context.Context, account *Account) (context.Context, *SessionObject, error) {
	if account == nil {
		return ctx, nil, ErrIdentityNotFound
	}

	identity := NewIdentityFromAccount(account)
	session := s.newSession(identity)

	s.emitAuthEvent(ctx, ActivityEventSessionEstablished, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"nickname": account.Nickname,
	})

	ctx = WithContext(ctx, account)
	return WithSessionContext(ctx, session), session, nil
}

// TokenForSession signs the session for the surrounding transport
// layer, which owns cookie/header placement and session expiry.
func (s *Auther) TokenForSession(session *SessionObject) (string, error) {
	if session == nil {
		return "", ErrUnableToFindSession
	}

	now := s.now()
	claims := &JWTClaims{
		UID:         session.AccountID,
		AccountNick: session.Nickname,
		Cap:         session.GetCapability(),
	}
	claims.RegisteredClaims.Issuer = s.issuer
	claims.RegisteredClaims.Subject = session.AccountID
	claims.RegisteredClaims.Audience = append(claims.RegisteredClaims.Audience, s.audience...)
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(s.tokenExpiration) * time.Hour))
	ensureTokenID(&claims.RegisteredClaims)

	return s.tokenService.SignClaims(claims)
}

// SessionFromToken validates a raw session token and rebuilds the principal.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// UpdatePassword re-hashes and persists the new password. It does not
// re-establish a session.
func (s *Auther) UpdatePassword(ctx context.Context, account *Account, newPassword string) error {
	if account == nil {
		return ErrIdentityNotFound
	}
	if s.accounts == nil {
		return goerrors.New("authenticator has no account store configured", goerrors.CategoryOperation)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
	}

	account.PasswordHash = hash

	s.emitAuthEvent(ctx, ActivityEventPasswordChanged, ActorRef{ID: account.ID.String(), Type: "account"}, account.ID.String(), nil)

	return nil
}

// UpdateProfile persists the mutable profile fields. No session effect.
func (s *Auther) UpdateProfile(ctx context.Context, account *Account, profile Profile) error {
	if account == nil {
		return ErrIdentityNotFound
	}
	if s.accounts == nil {
		return goerrors.New("authenticator has no account store configured", goerrors.CategoryOperation)
	}

	if err := profile.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload")
	}

	updated, err := s.accounts.UpdateProfile(ctx, account.ID, profile)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile")
	}

	if updated != nil {
		account.ApplyProfile(profile)
	}

	return nil
}

func (s *Auther) newSession(identity Identity) *SessionObject {
	now := s.now()
	return &SessionObject{
		AccountID:  identity.ID(),
		Nickname:   identity.Nickname(),
		Capability: identity.Capability(),
		Issuer:     s.issuer,
		Audience:   s.audience,
		IssuedAt:   &now,
	}
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, accountID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "account",
	}
}

var _ Authenticator = (*Auther)(nil)
var _ SessionEstablisher = (*Auther)(nil)
