package errs

import (
	"errors"
	"fmt"
)

// AuthKind classifies failures of the Auth Session Store.
type AuthKind int

const (
	AuthUnknown AuthKind = iota
	AuthBadCredentials
	AuthNetwork
	AuthWeakPassword
	AuthAlreadyRegistered
	AuthRateLimited
)

func (k AuthKind) String() string {
	switch k {
	case AuthBadCredentials:
		return "bad credentials"
	case AuthNetwork:
		return "network failure"
	case AuthWeakPassword:
		return "weak password"
	case AuthAlreadyRegistered:
		return "already registered"
	case AuthRateLimited:
		return "too many attempts"
	default:
		return "auth failure"
	}
}

// AuthError is returned by sign-in, sign-up and sign-out.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreError is returned by the Post Store.
type StoreError struct {
	Op  string // "insert" or "list"
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("posts %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationCode identifies the first rule a form failed.
type ValidationCode int

const (
	EmptyTitle ValidationCode = iota + 1
	TitleTooShort
	EmptyDescription
	EmptyImageURL
	InvalidImageURL
	MissingFields
	PasswordMismatch
	PasswordTooShort
)

var validationMessages = map[ValidationCode]string{
	EmptyTitle:       "Please enter a title",
	TitleTooShort:    "Title must be at least 3 characters long",
	EmptyDescription: "Please enter a description",
	EmptyImageURL:    "Please enter an image URL",
	InvalidImageURL:  "Please enter a valid image URL",
	MissingFields:    "Please fill in all fields",
	PasswordMismatch: "Passwords do not match",
	PasswordTooShort: "Password must be at least 6 characters long",
}

// ValidationError reports client-side input rejected before any network call.
type ValidationError struct {
	Code ValidationCode
}

func (e *ValidationError) Error() string {
	if m, ok := validationMessages[e.Code]; ok {
		return m
	}
	return fmt.Sprintf("validation failed (%d)", e.Code)
}

// Invalid builds a *ValidationError for code.
func Invalid(code ValidationCode) error { return &ValidationError{Code: code} }

// IsValidation reports whether err carries the given validation code.
func IsValidation(err error, code ValidationCode) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Code == code
}

// AuthKindOf returns the kind of an *AuthError in err's chain, or AuthUnknown.
func AuthKindOf(err error) AuthKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthUnknown
}
