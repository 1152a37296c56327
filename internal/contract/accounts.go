package contract

// AccountRegistry exclusively owns every account record. Reads on accounts
// the registry has never seen yield zero-value defaults rather than errors.
type AccountRegistry struct {
	Accounts map[AccountID]*AccountRecord `json:"accounts"`
}

func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{Accounts: make(map[AccountID]*AccountRecord)}
}

func (r *AccountRegistry) Get(id AccountID) *AccountRecord {
	return r.Accounts[id]
}

func (r *AccountRegistry) ensure(id AccountID) *AccountRecord {
	acc, ok := r.Accounts[id]
	if !ok {
		acc = &AccountRecord{Assignment: idleAssignment()}
		r.Accounts[id] = acc
	}
	return acc
}

// Whitelist grants worker access. It also lifts a ban: whitelisting is the
// admin's path to restoring a previously banned account.
func (r *AccountRegistry) Whitelist(id AccountID) {
	acc := r.ensure(id)
	acc.Whitelisted = true
	acc.Banned = false
}

// Ban revokes authorization for all further worker calls. In-flight
// assignment state is left in place and becomes inert until the account is
// whitelisted again or an expiry sweep reclaims the held task.
func (r *AccountRegistry) Ban(id AccountID) {
	r.ensure(id).Banned = true
}

// IsAuthorized reports whether the account may perform worker operations.
// Banning supersedes whitelisting.
func (r *AccountRegistry) IsAuthorized(id AccountID) bool {
	acc := r.Get(id)
	return acc != nil && acc.Whitelisted && !acc.Banned
}
