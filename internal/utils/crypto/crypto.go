package crypto

import (
	"errors"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// ErrPasswordStrength is the message shown when the "password" rule fails.
var ErrPasswordStrength = errors.New("password must be 8 to 72 characters long and contain at least one uppercase letter, one lowercase letter, and one digit")

// HashPassword hashes password with bcrypt at cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports a mismatch between password and hash as an error.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IsStrong reports whether password fits bcrypt and mixes upper, lower and
// digit characters.
func IsStrong(password string) bool {
	if len(password) > maxPasswordBytes || len([]rune(password)) < minPasswordLen {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// RegisterPasswordValidator registers the "password" validation tag.
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrong(fl.Field().String())
	})
}
