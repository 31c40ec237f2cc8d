package accounts

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var nicknameFormat = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// SignupData is the registration payload. ID is optional; when left as
// the zero value the store assigns a random one.
type SignupData struct {
	ID       uuid.UUID `json:"id,omitempty"`
	Email    string    `json:"email"`
	Nickname string    `json:"nickname"`
	Password string    `json:"password"`
}

// Validate enforces the field rules the form layer is expected to have
// already applied. Uniqueness is not checked here; that is the store's
// job.
func (d SignupData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&d.Nickname,
			validation.Required,
			validation.Length(3, 20),
			validation.Match(nicknameFormat),
		),
		validation.Field(&d.Password, validation.Required, validation.Length(8, 50)),
	)
}

// Profile carries the mutable profile fields owned by the account holder.
type Profile struct {
	Bio         string `json:"bio"`
	URL         string `json:"url"`
	Occupation  string `json:"occupation"`
	Location    string `json:"location"`
	AvatarImage string `json:"avatar_image,omitempty"`
}

func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Bio, validation.Length(0, 35)),
		validation.Field(&p.URL, validation.Length(0, 255), is.URL),
		validation.Field(&p.Occupation, validation.Length(0, 50)),
		validation.Field(&p.Location, validation.Length(0, 50)),
	)
}

// PasswordUpdate is the change-password payload. Confirm equality is
// validated before the core is reached, but the rule is kept here so
// callers without a form layer get the same behavior.
type PasswordUpdate struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (p PasswordUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.NewPassword, validation.Required, validation.Length(8, 50)),
		validation.Field(&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.NewPassword)),
		),
	)
}

// ValidateStringEquals builds a rule asserting the value equals expected.
func ValidateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("value does not match")
		}
		return nil
	}
}
