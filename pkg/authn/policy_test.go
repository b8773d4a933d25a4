package authn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("longusername"))
	assert.NoError(t, ValidateUsername("exactly8"))
	assert.True(t, IsValidationCode(ValidateUsername("short"), UsernameTooShort))
	assert.True(t, IsValidationCode(ValidateUsername(""), UsernameTooShort))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{name: "valid", password: "Abcdef1!"},
		{name: "valid with quote", password: `pass"word9`},
		{name: "too short", password: "Ab1!", wantMsg: "at least 8 characters"},
		{name: "no letter", password: "12345678!", wantMsg: "one letter"},
		{name: "no digit", password: "Abcdefgh!", wantMsg: "one number"},
		{name: "no special", password: "Abcdefg1", wantMsg: "special character"},
		{name: "special outside set", password: "Abcdefg1~", wantMsg: "special character"},
		{name: "non-ascii letters only", password: "ßßßßßß1!", wantMsg: "one letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsValidationCode(err, PasswordPolicyViolation))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
