package accounts

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to structured errors so the presentation layer can
// map them to user-visible messages without string matching.
const (
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeDuplicateNickname  = "DUPLICATE_NICKNAME"
	TextCodeUnknownAccount     = "UNKNOWN_ACCOUNT"
	TextCodeTokenMismatch      = "TOKEN_MISMATCH"
	TextCodeRateLimited        = "RATE_LIMITED"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeSessionNotFound    = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeClaimsMappingError = "CLAIMS_MAPPING_ERROR"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
)

// ErrDuplicateEmail is returned when a registration or mutation would
// reuse an email already held by another account.
var ErrDuplicateEmail = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateNickname is returned when a registration or mutation would
// reuse a nickname already held by another account.
var ErrDuplicateNickname = goerrors.New("nickname is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateNickname).
	WithCode(goerrors.CodeConflict)

// ErrUnknownAccount is returned by verification when no account exists
// for the supplied email.
var ErrUnknownAccount = goerrors.New("no account registered for that email", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUnknownAccount).
	WithCode(goerrors.CodeNotFound)

// ErrTokenMismatch is returned by verification when the supplied token
// does not equal the stored one.
var ErrTokenMismatch = goerrors.New("verification token does not match", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrRateLimited is returned when a verification resend is requested
// before the resend threshold has elapsed. State is left unchanged.
var ErrRateLimited = goerrors.New("verification email was sent less than an hour ago", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited)

// ErrMismatchedHashAndPassword is the uniform credential failure. It is
// returned for unknown identifiers and for wrong passwords alike so the
// caller cannot tell which field was wrong.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials aliases the uniform credential failure under the
// name the external interface documents.
var ErrInvalidCredentials = ErrMismatchedHashAndPassword

// ErrTooManyLoginAttempts is returned when an account exceeded the
// allowed number of failed logins inside the cool down period.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrIdentityNotFound is returned when an identity cannot be resolved.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound)

// ErrUnableToFindSession is returned when a request carries no session.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession is returned when a session token cannot be decoded.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError)

// ErrUnableToMapClaims is returned when token claims cannot be mapped.
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError)

// ErrUnableToParseData is a generic parse failure.
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError)

// ErrTokenExpired is returned for expired session tokens.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens that fail to parse.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// IsDuplicate reports whether err is either of the duplicate kinds.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateNickname)
}

// IsTokenExpiredError will check for expired tokens, including legacy
// string based errors coming from the JWT layer.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
