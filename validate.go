package authgate

import (
	"net/mail"
	"regexp"

	"github.com/kaelworth/authgate/password"
)

var (
	// 3-32 characters, letters, digits, underscore.
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	// E.164-ish: optional +, 7-15 digits.
	phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

const maxNicknameLen = 64

// validateRegisterInput collects every rule violation so the caller can
// fix the whole input at once.
func validateRegisterInput(input RegisterInput, strength password.StrengthPolicy) *ValidationError {
	var violations []FieldViolation

	if !usernameRe.MatchString(input.Username) {
		violations = append(violations, FieldViolation{
			Field:  "username",
			Reason: "must be 3-32 letters, digits, or underscores",
		})
	}

	if input.Email == "" {
		violations = append(violations, FieldViolation{
			Field:  "email",
			Reason: "required",
		})
	} else if addr, err := mail.ParseAddress(input.Email); err != nil || addr.Address != input.Email {
		violations = append(violations, FieldViolation{
			Field:  "email",
			Reason: "invalid email address",
		})
	}

	if err := strength.Check(input.Password); err != nil {
		violations = append(violations, FieldViolation{
			Field:  "password",
			Reason: err.Error(),
		})
	}

	if input.Phone != "" && !phoneRe.MatchString(input.Phone) {
		violations = append(violations, FieldViolation{
			Field:  "phone",
			Reason: "invalid phone number",
		})
	}

	if len(input.Nickname) > maxNicknameLen {
		violations = append(violations, FieldViolation{
			Field:  "nickname",
			Reason: "too long",
		})
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
