package authn

import "errors"

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationCode identifies why a registration was rejected.
type ValidationCode string

const (
	UsernameTooShort        ValidationCode = "UsernameTooShort"
	PasswordPolicyViolation ValidationCode = "PasswordPolicyViolation"
	UsernameTaken           ValidationCode = "UsernameTaken"
)

// ValidationError is a user-correctable registration failure.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationCode reports whether err is a ValidationError with the given code.
func IsValidationCode(err error, code ValidationCode) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Code == code
}
