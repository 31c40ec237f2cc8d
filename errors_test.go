package accounts_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      accounts.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      accounts.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("some wrapper: token is malformed"),
			expected: true,
		},
		{
			name:     "Fiber style malformed error",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different error",
			err:      errors.New("invalid signature"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsMalformedError(tt.err))
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, accounts.IsDuplicate(accounts.ErrDuplicateEmail))
	assert.True(t, accounts.IsDuplicate(accounts.ErrDuplicateNickname))
	assert.False(t, accounts.IsDuplicate(accounts.ErrUnknownAccount))
	assert.False(t, accounts.IsDuplicate(nil))
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrDuplicateEmail", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, accounts.ErrDuplicateEmail.Category)
		assert.Equal(t, accounts.TextCodeDuplicateEmail, accounts.ErrDuplicateEmail.TextCode)
	})

	t.Run("ErrDuplicateNickname", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, accounts.ErrDuplicateNickname.Category)
		assert.Equal(t, accounts.TextCodeDuplicateNickname, accounts.ErrDuplicateNickname.TextCode)
	})

	t.Run("ErrUnknownAccount", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, accounts.ErrUnknownAccount.Category)
		assert.Equal(t, accounts.TextCodeUnknownAccount, accounts.ErrUnknownAccount.TextCode)
	})

	t.Run("ErrTokenMismatch", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTokenMismatch.Category)
		assert.Equal(t, accounts.TextCodeTokenMismatch, accounts.ErrTokenMismatch.TextCode)
	})

	t.Run("ErrRateLimited", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryRateLimit, accounts.ErrRateLimited.Category)
		assert.Equal(t, accounts.TextCodeRateLimited, accounts.ErrRateLimited.TextCode)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, "the credentials provided are invalid", accounts.ErrMismatchedHashAndPassword.Message)
		assert.Equal(t, accounts.TextCodeInvalidCreds, accounts.ErrMismatchedHashAndPassword.TextCode)
	})

	t.Run("ErrInvalidCredentials aliases the uniform failure", func(t *testing.T) {
		assert.Same(t, accounts.ErrMismatchedHashAndPassword, accounts.ErrInvalidCredentials)
	})

	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, accounts.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", accounts.ErrIdentityNotFound.Message)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, accounts.ErrNoEmptyString.Category)
		assert.Equal(t, accounts.TextCodeEmptyPassword, accounts.ErrNoEmptyString.TextCode)
	})
}
