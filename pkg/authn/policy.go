package authn

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinUsernameLength = 8
	MinPasswordLength = 8

	// SpecialCharacters is the set a password must draw at least one character from.
	SpecialCharacters = `!@#$%^&*(),.?":{}|<>`
)

// ValidateUsername checks the username length, counted in characters.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return &ValidationError{
			Code:    UsernameTooShort,
			Message: "Username must be at least 8 characters long",
		}
	}
	return nil
}

// ValidatePassword checks the password policy, reporting the first rule broken.
func ValidatePassword(password string) error {
	violation := func(msg string) error {
		return &ValidationError{Code: PasswordPolicyViolation, Message: msg}
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return violation("Password must be at least 8 characters long")
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(SpecialCharacters, r):
			special = true
		}
	}

	if !letter {
		return violation("Password must contain at least one letter")
	}
	if !digit {
		return violation("Password must contain at least one number")
	}
	if !special {
		return violation("Password must contain at least one special character")
	}
	return nil
}
