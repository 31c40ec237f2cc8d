package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an authenticated session
type Session interface {
	GetAccountID() string
	GetAccountUUID() (uuid.UUID, error)
	GetNickname() string
	GetCapability() Capability
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (context.Context, *SessionObject, error)
	EstablishSession(ctx context.Context, account *Account) (context.Context, *SessionObject, error)
	TokenForSession(session *SessionObject) (string, error)
	SessionFromToken(token string) (Session, error)
	UpdatePassword(ctx context.Context, account *Account, newPassword string) error
	UpdateProfile(ctx context.Context, account *Account, profile Profile) error
}

// SessionEstablisher is the narrow trust surface the verification state
// machine uses to log an account in after a successful token check. It
// is intentionally the only path, besides explicit login, that binds a
// principal without a password check.
type SessionEstablisher interface {
	EstablishSession(ctx context.Context, account *Account) (context.Context, *SessionObject, error)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Nickname() string
	Email() string
	Capability() Capability
}

// Config holds session token options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService mints and validates the session tokens handed to the
// surrounding transport layer.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(token string) (AuthClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
