package validation

import (
	"strings"
	"unicode/utf8"

	"aperture/internal/models"
)

const (
	minPasswordLen = 6
	maxPasswordBytes = 72
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return models.NewValidationError("Password must be at least 6 characters")
	}
	// bcrypt rejects longer inputs.
	if len(password) > maxPasswordBytes {
		return models.NewValidationError("Password must not exceed 72 bytes")
	}
	return nil
}

// ValidateUsername checks length and the allowed character set.
func ValidateUsername(username string) error {
	return ValidateStruct(struct {
		Username string `json:"username" validate:"required,min=3,max=30,username"`
	}{username})
}

// ValidateEmail checks the format of an already-normalized email.
func ValidateEmail(email string) error {
	if err := GetValidator().Var(email, "required,email,max=254"); err != nil {
		return models.NewValidationError("Please provide a valid email")
	}
	return nil
}
