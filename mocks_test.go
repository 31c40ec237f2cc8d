package accounts_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements accounts.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Register(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	if rf, ok := args.Get(0).(func(context.Context, *accounts.Account) *accounts.Account); ok {
		return rf(ctx, account), args.Error(1)
	}
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccountStore) GetByNickname(ctx context.Context, nickname string) (*accounts.Account, error) {
	args := m.Called(ctx, nickname)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccountStore) StoreVerification(ctx context.Context, id uuid.UUID, token string, issuedAt time.Time) error {
	args := m.Called(ctx, id, token, issuedAt)
	return args.Error(0)
}

func (m *MockAccountStore) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) (*accounts.Account, error) {
	args := m.Called(ctx, id, at)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccountStore) Count(ctx context.Context, _ ...repository.SelectCriteria) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockAccountTracker implements accounts.AccountTracker
type MockAccountTracker struct {
	mock.Mock
}

func (m *MockAccountTracker) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, identifier)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccountTracker) TrackAttemptedLogin(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountTracker) TrackSuccessfulLogin(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockAccountMutator implements accounts.AccountMutator
type MockAccountMutator struct {
	mock.Mock
}

func (m *MockAccountMutator) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccountMutator) UpdateProfile(ctx context.Context, id uuid.UUID, profile accounts.Profile) (*accounts.Account, error) {
	args := m.Called(ctx, id, profile)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

// MockSessionEstablisher implements accounts.SessionEstablisher
type MockSessionEstablisher struct {
	mock.Mock
}

func (m *MockSessionEstablisher) EstablishSession(ctx context.Context, account *accounts.Account) (context.Context, *accounts.SessionObject, error) {
	args := m.Called(ctx, account)
	outCtx, ok := args.Get(0).(context.Context)
	if !ok {
		outCtx = ctx
	}
	session, _ := args.Get(1).(*accounts.SessionObject)
	return outCtx, session, args.Error(2)
}

// MockVerificationFlow implements accounts.VerificationStateMachine
type MockVerificationFlow struct {
	mock.Mock
}

func (m *MockVerificationFlow) Register(ctx context.Context, data accounts.SignupData) (*accounts.Account, error) {
	args := m.Called(ctx, data)
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockVerificationFlow) Verify(ctx context.Context, email, token string) (*accounts.VerificationResult, error) {
	args := m.Called(ctx, email, token)
	result, _ := args.Get(0).(*accounts.VerificationResult)
	return result, args.Error(1)
}

func (m *MockVerificationFlow) CanResend(account *accounts.Account) bool {
	args := m.Called(account)
	return args.Bool(0)
}

func (m *MockVerificationFlow) ResendVerification(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockVerificationFlow) CurrentState(account *accounts.Account) accounts.VerificationState {
	args := m.Called(account)
	state, _ := args.Get(0).(accounts.VerificationState)
	return state
}

// MockPasswordChanger implements accounts.PasswordChanger
type MockPasswordChanger struct {
	mock.Mock
}

func (m *MockPasswordChanger) UpdatePassword(ctx context.Context, account *accounts.Account, newPassword string) error {
	args := m.Called(ctx, account, newPassword)
	return args.Error(0)
}

// testConfig implements accounts.Config
type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func (c testConfig) GetSigningKey() string   { return c.signingKey }
func (c testConfig) GetTokenExpiration() int { return c.tokenExpiration }
func (c testConfig) GetIssuer() string       { return c.issuer }
func (c testConfig) GetAudience() []string   { return c.audience }

func newTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 24,
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

// capturingSink records every activity event it receives.
type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []accounts.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]accounts.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *capturingSink) EventTypes() []accounts.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]accounts.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// recordingMessenger captures outbound verification mails.
type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMessenger) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMessenger) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
