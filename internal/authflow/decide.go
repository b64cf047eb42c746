package authflow

import "github.com/example/tumar/internal/models"

// Stateless decision rules shared by the stateful Flow and the HTTP
// endpoints. The branch table lives here once; callers only map the
// returned Failure onto their own surface (inline message or status).

// IsRegistered distinguishes real accounts from pending rows created
// when a code is sent to an unregistered phone.
func IsRegistered(customer *models.Customer) bool {
	return customer != nil && customer.Password != ""
}

// DecideLookup applies the first-step branch table to a lookup result:
// register mode rejects a taken phone, login mode rejects an unknown
// one. Returns nil when the attempt may advance.
func DecideLookup(mode Mode, customer *models.Customer) *Failure {
	registered := IsRegistered(customer)
	switch mode {
	case ModeRegister:
		if registered {
			return &Failure{Kind: FailureRejected, Message: MsgPhoneTaken}
		}
	case ModeLogin:
		if !registered {
			return &Failure{Kind: FailureRejected, Message: MsgAccountNotFound}
		}
	}
	return nil
}

// DecidePassword verifies the login credential. The ban check runs
// first and wins over password correctness.
func DecidePassword(record *models.Customer, verify PasswordVerifier, password string) *Failure {
	if record.IsBanned {
		return &Failure{Kind: FailureRejected, Message: MsgAccountBlocked}
	}
	if !verify(record.Password, password) {
		return &Failure{Kind: FailureRejected, Message: MsgWrongPassword}
	}
	return nil
}

// ValidCodeEntry reports whether the submitted code is a complete
// 4-digit entry. Anything else is rejected before any external call.
func ValidCodeEntry(code string) bool {
	return len(code) == 4 && digitsOf(code) == code
}
