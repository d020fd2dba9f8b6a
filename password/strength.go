package password

import (
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// DefaultMinEntropy is the registration strength floor in entropy bits.
// 60 bits rejects short or highly repetitive passwords while staying
// permissive toward long passphrases.
const DefaultMinEntropy = 60

// StrengthPolicy gates registration passwords by estimated entropy rather
// than character-class checklists.
type StrengthPolicy struct {
	MinEntropy float64
}

// NewStrengthPolicy returns a policy with the given entropy floor;
// non-positive values fall back to [DefaultMinEntropy].
func NewStrengthPolicy(minEntropy float64) StrengthPolicy {
	if minEntropy <= 0 {
		minEntropy = DefaultMinEntropy
	}
	return StrengthPolicy{MinEntropy: minEntropy}
}

// Check returns a descriptive error when the password is too weak. The
// error text is suitable for returning to the end user.
func (p StrengthPolicy) Check(password string) error {
	return passwordvalidator.Validate(password, p.MinEntropy)
}
