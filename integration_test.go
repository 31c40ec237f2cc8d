package accounts_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks the whole lifecycle against a real sqlite-backed repository:
// register, verify through the mailed token, auto-login, resend gating,
// and a credential login afterwards.
func TestRegistrationLifecycleIntegration(t *testing.T) {
	repo := setupAccountsRepo(t)
	ctx := context.Background()

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	sink := &capturingSink{}
	mailer := &recordingMessenger{}

	provider := accounts.NewAccountProvider(repo)
	authenticator := accounts.NewAuthenticator(provider, newTestConfig()).
		WithAccountMutator(repo).
		WithActivitySink(sink)

	flow := accounts.NewVerificationStateMachine(repo, authenticator,
		accounts.WithVerificationClock(now),
		accounts.WithVerificationActivitySink(sink),
		accounts.WithMessenger(mailer),
		accounts.WithTokenIssuer(accounts.NewTokenIssuer(accounts.WithTokenClock(now))),
	)

	// register
	account, err := flow.Register(ctx, accounts.SignupData{
		Email:    "user@example.com",
		Nickname: "goliatone",
		Password: "super-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, accounts.StateUnverified, flow.CurrentState(account))

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t,
		fmt.Sprintf("/check-email-token?token=%s&email=%s", account.VerificationToken, account.Email),
		sent[0].Body,
	)

	// a resend right after registration trips the gate
	err = flow.ResendVerification(ctx, account)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrRateLimited)

	// verify via the mailed token
	result, err := flow.Verify(ctx, "user@example.com", account.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, "goliatone", result.Nickname)
	assert.Equal(t, 1, result.TotalAccounts)
	require.NotNil(t, result.Session)
	assert.True(t, accounts.IsAuthenticated(result.Ctx))
	assert.Equal(t, accounts.StateVerified, flow.CurrentState(result.Account))

	firstVerifiedAt := result.Account.VerifiedAt
	require.NotNil(t, firstVerifiedAt)

	// the replay is a no-op success with the original timestamp
	replay, err := flow.Verify(ctx, "user@example.com", account.VerificationToken)
	require.NoError(t, err)
	require.NotNil(t, replay.Account.VerifiedAt)
	assert.WithinDuration(t, *firstVerifiedAt, *replay.Account.VerifiedAt, time.Second)

	// once the threshold passes, a resend issues a fresh token
	clock = clock.Add(accounts.ResendThreshold + time.Minute)
	err = flow.ResendVerification(ctx, result.Account)
	require.NoError(t, err)
	assert.Len(t, mailer.Sent(), 2)

	// credential login works by email and by nickname
	_, session, err := authenticator.Login(ctx, "user@example.com", "super-secret")
	require.NoError(t, err)
	assert.Equal(t, "goliatone", session.Nickname)

	loginCtx, session, err := authenticator.Login(ctx, "goliatone", "super-secret")
	require.NoError(t, err)
	assert.True(t, accounts.IsAuthenticated(loginCtx))

	// the session survives a token round trip
	token, err := authenticator.TokenForSession(session)
	require.NoError(t, err)
	restored, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, restored.GetAccountID())
	assert.Equal(t, "goliatone", restored.GetNickname())

	// wrong password and unknown identifier fail identically
	_, _, wrongPassErr := authenticator.Login(ctx, "user@example.com", "wrong-password")
	_, _, unknownErr := authenticator.Login(ctx, "ghost@example.com", "super-secret")
	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.ErrorIs(t, wrongPassErr, accounts.ErrMismatchedHashAndPassword)
	assert.ErrorIs(t, unknownErr, accounts.ErrMismatchedHashAndPassword)

	events := sink.EventTypes()
	assert.Contains(t, events, accounts.ActivityEventAccountRegistered)
	assert.Contains(t, events, accounts.ActivityEventAccountVerified)
	assert.Contains(t, events, accounts.ActivityEventVerificationResent)
	assert.Contains(t, events, accounts.ActivityEventSessionEstablished)
	assert.Contains(t, events, accounts.ActivityEventLoginSuccess)
	assert.Contains(t, events, accounts.ActivityEventLoginFailure)
}

// A verification replayed against a second account's token never leaks
// across accounts: tokens only match the account they were issued for.
func TestVerificationTokensAreAccountBound(t *testing.T) {
	repo := setupAccountsRepo(t)
	ctx := context.Background()

	mailer := &recordingMessenger{}
	provider := accounts.NewAccountProvider(repo)
	authenticator := accounts.NewAuthenticator(provider, newTestConfig())

	flow := accounts.NewVerificationStateMachine(repo, authenticator,
		accounts.WithMessenger(mailer),
	)

	first, err := flow.Register(ctx, accounts.SignupData{
		Email:    "first@example.com",
		Nickname: "first",
		Password: "super-secret",
	})
	require.NoError(t, err)

	second, err := flow.Register(ctx, accounts.SignupData{
		Email:    "second@example.com",
		Nickname: "second",
		Password: "super-secret",
	})
	require.NoError(t, err)

	_, err = flow.Verify(ctx, first.Email, second.VerificationToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrTokenMismatch)

	result, err := flow.Verify(ctx, first.Email, first.VerificationToken)
	require.NoError(t, err)
	assert.True(t, result.Account.Verified)
	assert.Equal(t, 2, result.TotalAccounts)
}
