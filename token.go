package accounts

import (
	"time"

	"github.com/google/uuid"
)

// TokenIssuer produces verification tokens together with their issue
// timestamp. Tokens are random UUIDs, drawn from crypto/rand, rendered
// as opaque strings.
type TokenIssuer struct {
	now func() time.Time
}

// TokenIssuerOption customizes the issuer.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if clock != nil {
			t.now = clock
		}
	}
}

// NewTokenIssuer returns a TokenIssuer backed by the system clock.
func NewTokenIssuer(opts ...TokenIssuerOption) *TokenIssuer {
	issuer := &TokenIssuer{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer
}

// Issue returns a fresh verification token and its issue time.
func (t *TokenIssuer) Issue() (string, time.Time) {
	return uuid.NewString(), t.now()
}
