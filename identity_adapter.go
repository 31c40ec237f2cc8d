package accounts

// AccountIdentity is a plain identity snapshot taken from an account
// record. It carries only what the session layer needs: no behavior is
// inherited from the domain record.
type AccountIdentity struct {
	id       string
	nickname string
	email    string
	cap      Capability
}

// NewIdentityFromAccount returns the Identity for the provided account.
func NewIdentityFromAccount(account *Account) Identity {
	if account == nil {
		return nil
	}
	return AccountIdentity{
		id:       account.ID.String(),
		nickname: account.Nickname,
		email:    account.Email,
		cap:      CapabilityMember,
	}
}

// ID returns the account's ID as a string.
func (a AccountIdentity) ID() string {
	return a.id
}

// Nickname returns the account's nickname.
func (a AccountIdentity) Nickname() string {
	return a.nickname
}

// Email returns the account's email address.
func (a AccountIdentity) Email() string {
	return a.email
}

// Capability returns the capability marker.
func (a AccountIdentity) Capability() Capability {
	if a.cap == "" {
		return CapabilityMember
	}
	return a.cap
}

var _ Identity = AccountIdentity{}
