package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hash. Mismatches surface as
// ErrAuthenticationFailed.
func ComparePassword(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperrors.ErrAuthenticationFailed
	}
	return err
}

// CheckPasswordPolicy enforces a minimum length and at least one letter and one digit.
func CheckPasswordPolicy(password string, minLength int) error {
	if len([]rune(password)) < minLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minLength})
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return apperrors.NewValidationError("password must contain a letter and a digit", nil)
	}
	return nil
}
