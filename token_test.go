package accounts_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerIssuesRandomTokens(t *testing.T) {
	issuer := accounts.NewTokenIssuer()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, _ := issuer.Issue()
		require.NotEmpty(t, token)

		// tokens are opaque UUID strings
		_, err := uuid.Parse(token)
		require.NoError(t, err)

		assert.False(t, seen[token], "token %q issued twice", token)
		seen[token] = true
	}
}

func TestTokenIssuerUsesInjectedClock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := accounts.NewTokenIssuer(
		accounts.WithTokenClock(func() time.Time { return now }),
	)

	_, issuedAt := issuer.Issue()
	assert.Equal(t, now, issuedAt)
}
