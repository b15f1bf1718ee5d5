package validate

import (
	"strings"

	"github.com/and161185/blogbox/internal/errs"
)

// MinPasswordLen is the shortest password the sign-up form accepts.
const MinPasswordLen = 6

// Login requires both fields.
func Login(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errs.Invalid(errs.MissingFields)
	}
	return nil
}

// Signup requires all fields, a matching confirmation and a minimum password length.
func Signup(email, password, confirm string) error {
	if strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return errs.Invalid(errs.MissingFields)
	}
	if password != confirm {
		return errs.Invalid(errs.PasswordMismatch)
	}
	if len(password) < MinPasswordLen {
		return errs.Invalid(errs.PasswordTooShort)
	}
	return nil
}
