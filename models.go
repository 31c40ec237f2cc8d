package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Capability is the marker bound to an authenticated principal.
type Capability = string

const (
	// CapabilityMember is the single capability every authenticated
	// account carries. Finer grained authorization lives outside this
	// package.
	CapabilityMember Capability = "member"
)

// ResendThreshold is the minimum age of the last verification token
// before a new one may be issued for the same account.
const ResendThreshold = time.Hour

// Account is the identity record
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Nickname          string     `bun:"nickname,notnull,unique" json:"nickname,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	Verified          bool       `bun:"verified" json:"verified,omitempty"`
	VerificationToken string     `bun:"verification_token" json:"verification_token,omitempty"`
	TokenIssuedAt     *time.Time `bun:"token_issued_at,nullzero" json:"token_issued_at,omitempty"`
	VerifiedAt        *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	Bio               string     `bun:"bio" json:"bio,omitempty"`
	URL               string     `bun:"url" json:"url,omitempty"`
	Occupation        string     `bun:"occupation" json:"occupation,omitempty"`
	Location          string     `bun:"location" json:"location,omitempty"`
	AvatarImage       string     `bun:"avatar_image" json:"avatar_image,omitempty"`
	LoginAttempts     int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt    *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt        *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsValidToken reports whether the supplied verification token matches
// the one stored on the account. Email and token comparisons are exact
// (case sensitive) byte equality, matching how the records are stored.
func (a *Account) IsValidToken(token string) bool {
	if a.VerificationToken == "" || token == "" {
		return false
	}
	return a.VerificationToken == token
}

// CanResendVerification is true only when the last verification token
// is older than ResendThreshold. An account that was never issued a
// token can always request one.
func (a *Account) CanResendVerification(now time.Time) bool {
	if a.TokenIssuedAt == nil {
		return true
	}
	return now.Sub(*a.TokenIssuedAt) > ResendThreshold
}

// CompleteVerification flips the account into its verified state and
// records the timestamp. The transition is monotonic: once verified the
// flag never reverts and VerifiedAt is never touched again.
func (a *Account) CompleteVerification(now time.Time) {
	if a.Verified {
		return
	}
	a.Verified = true
	a.VerifiedAt = &now
}

// SetVerificationToken records a freshly issued token and its issue time.
func (a *Account) SetVerificationToken(token string, issuedAt time.Time) {
	a.VerificationToken = token
	a.TokenIssuedAt = &issuedAt
}

// ApplyProfile copies the mutable profile fields onto the account.
func (a *Account) ApplyProfile(p Profile) {
	a.Bio = p.Bio
	a.URL = p.URL
	a.Occupation = p.Occupation
	a.Location = p.Location
	a.AvatarImage = p.AvatarImage
}
